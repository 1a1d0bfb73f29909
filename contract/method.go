package contract

import (
	"net/http"
	"strings"
)

// Method is an HTTP method a contract can be declared for.
type Method string

// Supported methods.
const (
	GET     Method = http.MethodGet
	PUT     Method = http.MethodPut
	POST    Method = http.MethodPost
	DELETE  Method = http.MethodDelete
	OPTIONS Method = http.MethodOptions
	HEAD    Method = http.MethodHead
	PATCH   Method = http.MethodPatch
)

// Methods lists the supported methods in canonical order. Generated documents
// always emit operations in this order.
var Methods = []Method{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH}

// ParseMethod returns the Method for s, ignoring case. It is meant for
// configuration and flags; request methods are matched exactly.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Valid reports whether m is one of Methods.
func (m Method) Valid() bool {
	for _, candidate := range Methods {
		if m == candidate {
			return true
		}
	}
	return false
}

// CarriesBody reports whether requests with this method conventionally carry
// a payload.
func (m Method) CarriesBody() bool {
	return m == POST || m == PUT || m == PATCH
}

func (m Method) String() string {
	return string(m)
}
