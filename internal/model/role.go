package model

// Role codes as constants
const (
	RoleOwner   = "OWNER"
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// Privilege codes checked by middleware.RequirePrivilege
const (
	PrivBookView       = "book:view"
	PrivBookManage     = "book:manage"
	PrivStockAdjust    = "stock:adjust"
	PrivCustomerManage = "customer:manage"
	PrivInvoiceView    = "invoice:view"
	PrivInvoiceCreate  = "invoice:create"
	PrivPaymentCreate  = "payment:create"
	PrivReturnCreate   = "return:create"
	PrivLedgerView     = "ledger:view"
	PrivLedgerCreate   = "ledger:create"
	PrivLedgerReverse  = "ledger:reverse"
	PrivDashboardView  = "dashboard:view"
)

// RolePrivileges maps each role to the privileges it grants.
// OWNER gets everything; reversal stays with OWNER and ADMIN.
var RolePrivileges = map[string][]string{
	RoleOwner: {
		PrivBookView, PrivBookManage, PrivStockAdjust, PrivCustomerManage,
		PrivInvoiceView, PrivInvoiceCreate, PrivPaymentCreate, PrivReturnCreate,
		PrivLedgerView, PrivLedgerCreate, PrivLedgerReverse, PrivDashboardView,
	},
	RoleAdmin: {
		PrivBookView, PrivBookManage, PrivStockAdjust, PrivCustomerManage,
		PrivInvoiceView, PrivInvoiceCreate, PrivPaymentCreate, PrivReturnCreate,
		PrivLedgerView, PrivLedgerCreate, PrivLedgerReverse,
	},
	RoleCashier: {
		PrivBookView, PrivInvoiceView, PrivInvoiceCreate, PrivPaymentCreate, PrivLedgerView,
	},
}
