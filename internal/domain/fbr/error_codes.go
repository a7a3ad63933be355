package fbr

import (
	"fmt"
	"strconv"
	"strings"
)

// errorMessages maps the Authority's numeric response codes to messages staff
// can act on. The Authority documents these as zero-padded strings ("0001");
// the table is keyed by their integer value so both spellings resolve.
var errorMessages = map[int]string{
	1:   "Seller is not registered for sales tax; verify the tenant NTN",
	2:   "Invalid buyer registration number or NTN",
	3:   "Invalid invoice type; only Sale Invoice and Debit Note are accepted",
	5:   "Invoice date must be in YYYY-MM-DD format",
	6:   "Referenced sale invoice does not exist",
	7:   "Wrong sale type selected for this transaction",
	9:   "Invoice reference number is required",
	10:  "HS code is missing or not recognized",
	11:  "Rate field is missing or malformed",
	12:  "Value of sales excluding tax is required",
	13:  "Sales tax applicable is required",
	18:  "Sales tax withheld at source is not applicable to this sale type",
	19:  "Fixed notified value or retail price is required for 3rd-schedule goods",
	20:  "Quantity is required and must be greater than zero",
	21:  "Unit of measure is not valid for the given HS code",
	22:  "Total value of the item does not equal value excluding tax plus tax",
	26:  "Duplicate invoice reference number for this seller",
	41:  "Buyer province is missing or not a valid province",
	42:  "Seller province is missing or not a valid province",
	52:  "SRO schedule number is not valid for the declared sale type",
	77:  "Scenario ID is required when submitting to the sandbox environment",
	98:  "Submission rejected: the invoice did not pass the Authority's validation rules",
	99:  "The Authority's service is temporarily unable to process submissions",
	401: "Authentication failed: the bearer token is invalid or expired",
	403: "The token is not authorized for this seller's NTN",
}

// TranslateErrorCode is total: any integer yields a non-empty message, with a
// generic fallback for codes outside the table. It sits on the failure path
// of every component, so it must never fail itself.
func TranslateErrorCode(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Authority error %d: contact support with this code", code)
}

// TranslateRawCode handles the wire form: zero-padded numeric strings, with
// free text passed through and blank input given a usable default.
func TranslateRawCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Authority returned no error code"
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		// Not numeric: the Authority occasionally returns message text in
		// the code field. Surface it as-is.
		return trimmed
	}
	return TranslateErrorCode(n)
}

// IsAuthErrorCode reports whether a code means the tenant's credentials are
// bad. These are non-retryable: the operator must fix the token first.
func IsAuthErrorCode(code int) bool {
	return code == 401 || code == 403
}
