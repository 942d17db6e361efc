// Package export формирует выгрузки для административной панели.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/mmeshcher/meatmart/internal/model"
)

// ContentTypeXLSX задаёт тип содержимого выгрузки.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02 15:04:05"

var orderHeaders = []string{
	"ID", "CustomerID", "CustomerName", "CustomerMobile", "Items",
	"TotalAmount", "Status", "OrderDate", "DeliveryDate", "DeliveryAddress",
	"PaymentMethod", "PaymentStatus",
}

// Orders записывает заказы в книгу Excel с одним листом.
func Orders(w io.Writer, orders []model.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()

		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.CustomerID)
		row.AddCell().SetString(o.CustomerName)
		row.AddCell().SetString(o.CustomerMobile)

		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s x %gkg", it.MeatName, it.Weight))
		}
		row.AddCell().SetString(strings.Join(items, ", "))

		row.AddCell().SetFloat(o.TotalAmount)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(o.OrderDate.Format(dateLayout))

		delivery := ""
		if o.DeliveryDate != nil {
			delivery = o.DeliveryDate.Format(dateLayout)
		}
		row.AddCell().SetString(delivery)

		row.AddCell().SetString(o.DeliveryAddress)
		row.AddCell().SetString(string(o.PaymentMethod))
		row.AddCell().SetString(string(o.PaymentStatus))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
