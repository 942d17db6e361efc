package session

// DemoOTP принимается как одноразовый код для любой демо-учётной записи.
const DemoOTP = "1234"

// Account описывает демо-учётную запись из списка допуска.
type Account struct {
	ID       string
	Mobile   string
	Name     string
	Password string
}

// DemoAccounts содержит фиксированный список допуска для входа.
var DemoAccounts = []Account{
	{ID: "1", Mobile: "9876543210", Name: "Rahul Sharma", Password: "customer123"},
	{ID: "2", Mobile: "9876543211", Name: "Priya Patel", Password: "customer456"},
	{ID: "admin-1", Mobile: "9999999999", Name: "Store Admin", Password: "admin123"},
}

// AdminMobiles содержит номера, получающие роль администратора.
var AdminMobiles = map[string]struct{}{
	"9999999999": {},
}

// IsAdminMobile сообщает, входит ли номер в список администраторов.
func IsAdminMobile(mobile string) bool {
	_, ok := AdminMobiles[mobile]
	return ok
}

// FindAccount ищет демо-учётную запись по номеру телефона.
func FindAccount(mobile string) (Account, bool) {
	for _, a := range DemoAccounts {
		if a.Mobile == mobile {
			return a, true
		}
	}
	return Account{}, false
}

func (a Account) accepts(credential string) bool {
	return credential == a.Password || credential == DemoOTP
}
