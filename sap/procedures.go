package sap

import "strings"

// Remote function modules exposed through the CPI gateway
const (
	ProcCustomerList  = "BAPI_CUSTOMER_GETLIST"
	ProcSalesOrders   = "BAPI_SALESORDER_GETLIST"
	ProcCreditSegment = "UKM_DB_UKMBP_CMS_SGM_READ"
	ProcOpenItems     = "ZBAPI_AR_ACC_GETOPENITEMS_V2"
)

// PadCustomerNumber left-pads a customer number to the 10 digits SAP
// stores in KNA1.
func PadCustomerNumber(customer string) string {
	if len(customer) >= 10 {
		return customer
	}
	return strings.Repeat("0", 10-len(customer)) + customer
}
