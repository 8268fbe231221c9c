package api

import (
	"net/http"
)

func (s *Server) handleGetCustomers(w http.ResponseWriter, r *http.Request) {
	offset := getIntParam(r, "offset", 0, 0, 1000000)
	limit := getIntParam(r, "limit", 100, 1, 1000)

	if term := r.URL.Query().Get("search"); term != "" {
		customers, err := s.repo.SearchCustomers(term, limit)
		if err != nil {
			writeError(w, "search_customers", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"customers": customers,
			"count":     len(customers),
		})
		return
	}

	customers, err := s.repo.GetAllCustomers(offset, limit)
	if err != nil {
		writeError(w, "get_customers", err)
		return
	}
	total, err := s.repo.CountCustomers()
	if err != nil {
		writeError(w, "get_customers", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"count":     len(customers),
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	customer, err := s.repo.GetCustomerByCode(code)
	if err != nil {
		writeError(w, "get_customer", err)
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Operation: "get_customer", Error: "customer not found"})
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleGetCustomerOrders(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	limit := getIntParam(r, "limit", 100, 1, 1000)

	orders, err := s.repo.GetSalesOrdersByCustomer(code, limit)
	if err != nil {
		writeError(w, "get_customer_orders", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer_code": code,
		"orders":        orders,
		"count":         len(orders),
	})
}

func (s *Server) handleGetRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 100, 1, 1000)

	orders, err := s.repo.GetRecentSalesOrders(limit)
	if err != nil {
		writeError(w, "get_sales_orders", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (s *Server) handleGetSalesOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.PathValue("order")

	order, err := s.repo.GetSalesOrderByNumber(orderNumber)
	if err != nil {
		writeError(w, "get_sales_order", err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Operation: "get_sales_order", Error: "sales order not found"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleGetCreditLimits(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 100, 1, 1000)

	limits, err := s.repo.GetAllCreditLimits(limit)
	if err != nil {
		writeError(w, "get_credit_limits", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"credit_limits": limits,
		"count":         len(limits),
	})
}

func (s *Server) handleGetCreditLimit(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	segment := r.URL.Query().Get("segment")
	if segment == "" {
		segment = "0001"
	}

	creditLimit, err := s.repo.GetCreditLimit(code, segment)
	if err != nil {
		writeError(w, "get_credit_limit", err)
		return
	}
	if creditLimit == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Operation: "get_credit_limit", Error: "credit limit not found"})
		return
	}

	writeJSON(w, http.StatusOK, creditLimit)
}
