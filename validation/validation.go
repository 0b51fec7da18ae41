// Package validation turns raw request bodies into typed requests.
// Every parser is total: malformed JSON, non-object input, missing keys
// and wrong-typed values all come back as a single *Error.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"fast-food-fast/models"
)

// Error is the only failure any parser in this package returns.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func fail(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

var (
	emailPattern     = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
	telephonePattern = regexp.MustCompile(`^\+\d{1,4}-\d{1,4}-\d{3,10}$`)
)

const (
	minPasswordLen = 6
	maxPasswordLen = 12
	minNameLen     = 3

	// Column widths in migrations/001_init.sql.
	maxNameLen  = 80
	maxEmailLen = 120
	maxItemLen  = 80
	maxUnitLen  = 80
)

type Registration struct {
	Username  string
	Password  string
	Email     string
	Telephone string
}

type Login struct {
	Username string
	Password string
}

// Order holds the fields accepted in an order payload. The optional
// fields are parsed for shape only; order creation recomputes them.
type Order struct {
	Items     []models.OrderItem
	Status    *models.OrderStatus
	TotalCost *float64
	OrderID   *string
}

type StatusUpdate struct {
	Status models.OrderStatus
}

type MenuItem struct {
	Item string
	Unit string
	Rate float64
}

// ParseRegistration validates a signup payload and normalizes the username.
func ParseRegistration(body []byte) (Registration, error) {
	obj, err := decodeObject(body, "registration data")
	if err != nil {
		return Registration{}, err
	}

	rawName, ok := obj["username"]
	if !ok {
		return Registration{}, fail("Specify a username")
	}
	name, ok := rawName.(string)
	if !ok {
		return Registration{}, fail("Username must be a string")
	}
	username, err := NormalizeName(name)
	if err != nil {
		return Registration{}, err
	}

	rawPassword, ok := obj["password"]
	if !ok {
		return Registration{}, fail("Specify a password")
	}
	password, ok := rawPassword.(string)
	if !ok {
		return Registration{}, fail("Password should be a string")
	}
	if !IsValidPassword(password) {
		return Registration{}, fail("password must contain atleast one lowercase letter, one uppercase letter, a digit and be %d to %d characters long", minPasswordLen, maxPasswordLen)
	}

	email, err := requiredString(obj, "email", "Specify an email address")
	if err != nil {
		return Registration{}, err
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return Registration{}, fail("Email address must be at most %d characters long", maxEmailLen)
	}
	if !emailPattern.MatchString(email) {
		return Registration{}, fail("Invalid email address: %s", email)
	}

	telephone, err := requiredString(obj, "telephone", "Specify telephone contact")
	if err != nil {
		return Registration{}, err
	}
	if !telephonePattern.MatchString(telephone) {
		return Registration{}, fail("Telephone should look like +256-712-345678")
	}

	return Registration{
		Username:  username,
		Password:  password,
		Email:     email,
		Telephone: telephone,
	}, nil
}

// ParseLogin checks that username and password are present as strings.
// It does not check the password against anything.
func ParseLogin(body []byte) (Login, error) {
	obj, err := decodeObject(body, "login data")
	if err != nil {
		return Login{}, err
	}
	name, ok := obj["username"].(string)
	if !ok {
		return Login{}, fail("Specify username as a string")
	}
	password, ok := obj["password"].(string)
	if !ok {
		return Login{}, fail("Specify password as a string")
	}
	return Login{Username: CanonicalName(name), Password: password}, nil
}

// ParseOrder validates an order payload. items is required and non-empty;
// status, total-cost and order-id are optional and independent of each other.
func ParseOrder(body []byte) (Order, error) {
	obj, err := decodeObject(body, "order")
	if err != nil {
		return Order{}, err
	}

	rawItems, ok := obj["items"]
	if !ok {
		return Order{}, fail("Specify items in the order")
	}
	if key, found := unexpectedKey(obj, "items", "status", "total-cost", "order-id"); found {
		return Order{}, fail("Unexpected field %q in order", key)
	}
	list, ok := rawItems.([]any)
	if !ok {
		return Order{}, fail("Order items should be a list")
	}
	if len(list) == 0 {
		return Order{}, fail("Order must contain at least one item")
	}

	out := Order{Items: make([]models.OrderItem, 0, len(list))}
	for i, raw := range list {
		item, err := ParseOrderItem(raw)
		if err != nil {
			return Order{}, fail("item %d: %s", i, err.Error())
		}
		out.Items = append(out.Items, item)
	}

	if raw, ok := obj["status"]; ok {
		s, isString := raw.(string)
		if !isString {
			return Order{}, fail("Order status should be a string")
		}
		status, known := models.ParseOrderStatus(s)
		if !known {
			return Order{}, fail("Specify status as %s", statusList())
		}
		out.Status = &status
	}
	if raw, ok := obj["total-cost"]; ok {
		total, isNumber := raw.(float64)
		if !isNumber {
			return Order{}, fail("total-cost should be a number")
		}
		out.TotalCost = &total
	}
	if raw, ok := obj["order-id"]; ok {
		id, isString := raw.(string)
		if !isString || strings.TrimSpace(id) == "" {
			return Order{}, fail("order-id should be a non-empty string")
		}
		id = strings.TrimSpace(id)
		out.OrderID = &id
	}
	return out, nil
}

// ParseOrderItem validates one entry of an order's items list. The item
// name is returned trimmed.
func ParseOrderItem(v any) (models.OrderItem, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.OrderItem{}, fail("Order item should be an object")
	}
	if err := exactKeys(obj, "order item", "item", "quantity", "cost"); err != nil {
		return models.OrderItem{}, err
	}

	name, err := itemName(obj["item"])
	if err != nil {
		return models.OrderItem{}, err
	}
	quantity, err := positiveNumber(obj["quantity"], "quantity")
	if err != nil {
		return models.OrderItem{}, err
	}
	cost, err := positiveNumber(obj["cost"], "cost")
	if err != nil {
		return models.OrderItem{}, err
	}
	return models.OrderItem{Item: name, Quantity: quantity, Cost: cost}, nil
}

// ParseStatusUpdate accepts exactly {"status": "<status>"}.
func ParseStatusUpdate(body []byte) (StatusUpdate, error) {
	obj, err := decodeObject(body, "status update")
	if err != nil {
		return StatusUpdate{}, err
	}
	raw, ok := obj["status"]
	if !ok {
		return StatusUpdate{}, fail("Specify status in your request data")
	}
	s, ok := raw.(string)
	if !ok {
		return StatusUpdate{}, fail("Status should be a string")
	}
	status, known := models.ParseOrderStatus(s)
	if !known {
		return StatusUpdate{}, fail("Specify status as %s", statusList())
	}
	if len(obj) != 1 {
		return StatusUpdate{}, fail("Redundant data in status request")
	}
	return StatusUpdate{Status: status}, nil
}

// ParseMenuItem accepts exactly item, unit and rate.
func ParseMenuItem(body []byte) (MenuItem, error) {
	obj, err := decodeObject(body, "menu item")
	if err != nil {
		return MenuItem{}, err
	}
	if err := exactKeys(obj, "menu item", "item", "unit", "rate"); err != nil {
		return MenuItem{}, err
	}

	name, err := itemName(obj["item"])
	if err != nil {
		return MenuItem{}, err
	}
	unit, ok := obj["unit"].(string)
	if !ok {
		return MenuItem{}, fail("Specify item unit as a string")
	}
	rate, err := positiveNumber(obj["rate"], "rate")
	if err != nil {
		return MenuItem{}, err
	}
	unit = strings.TrimSpace(unit)
	if utf8.RuneCountInString(unit) > maxUnitLen {
		return MenuItem{}, fail("Item unit must be at most %d characters long", maxUnitLen)
	}
	return MenuItem{Item: name, Unit: unit, Rate: rate}, nil
}

// NormalizeName checks that name is a sequence of alphabetic tokens of at
// least three letters and returns the tokens capitalized and joined by
// single spaces.
func NormalizeName(name string) (string, error) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", fail("Specify a username")
	}
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minNameLen {
			return "", fail("Each name (first/last name) must contain atleast %d letters", minNameLen)
		}
		for _, r := range tok {
			if !unicode.IsLetter(r) {
				return "", fail("Username can only contain valid name(s) separated by single spaces")
			}
		}
	}
	canonical := CanonicalName(name)
	if utf8.RuneCountInString(canonical) > maxNameLen {
		return "", fail("Username must be at most %d characters long", maxNameLen)
	}
	return canonical, nil
}

// CanonicalName applies the username casing rules without validating.
func CanonicalName(name string) string {
	tokens := strings.Fields(name)
	for i, tok := range tokens {
		tokens[i] = capitalize(tok)
	}
	return strings.Join(tokens, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// IsValidPassword reports whether password is 6 to 12 characters long and
// contains a lowercase letter, an uppercase letter and a digit.
func IsValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func decodeObject(body []byte, what string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fail("Invalid JSON for %s", what)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fail("The %s should be a JSON object", what)
	}
	return obj, nil
}

func exactKeys(obj map[string]any, what string, keys ...string) error {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return fail("Specify %s for the %s", k, what)
		}
	}
	if len(obj) != len(keys) {
		return fail("Redundant data specified for %s", what)
	}
	return nil
}

// unexpectedKey returns the alphabetically first key of obj not in allowed.
func unexpectedKey(obj map[string]any, allowed ...string) (string, bool) {
	var extra []string
	for key := range obj {
		if !slices.Contains(allowed, key) {
			extra = append(extra, key)
		}
	}
	if len(extra) == 0 {
		return "", false
	}
	slices.Sort(extra)
	return extra[0], true
}

func requiredString(obj map[string]any, key, missing string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fail("%s", missing)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fail("%s should be a string", key)
	}
	return strings.TrimSpace(s), nil
}

func itemName(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fail("Define item as a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail("Item name cannot be empty!")
	}
	if utf8.RuneCountInString(s) > maxItemLen {
		return "", fail("Item name must be at most %d characters long", maxItemLen)
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return "", fail("Item name can only contain letters, numbers and spaces")
		}
	}
	return s, nil
}

func positiveNumber(v any, field string) (float64, error) {
	n, ok := v.(float64)
	if !ok {
		return 0, fail("%s should be a number", field)
	}
	if n <= 0 {
		return 0, fail("%s should be greater than zero", field)
	}
	return n, nil
}

func statusList() string {
	names := make([]string, len(models.OrderStatuses))
	for i, s := range models.OrderStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
