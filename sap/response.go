package sap

import "encoding/json"

// Envelope unwraps the "<PROCEDURE>.Response" object SAP CPI wraps every
// function module result in. Returns nil if the key is absent.
func Envelope(raw json.RawMessage, procedure string) json.RawMessage {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return wrapper[procedure+".Response"]
}

// Field returns a named member of a JSON object, or nil if the input is
// not an object or the member is absent.
func Field(raw json.RawMessage, name string) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[name]
}

// RawList normalizes SAP's list-or-singleton convention: table results come
// back as {"item": [...]} with two or more rows but as {"item": {...}} with
// exactly one. Accepts the "item" container or the item value itself and
// always returns a slice.
func RawList(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	if inner := Field(raw, "item"); inner != nil {
		raw = inner
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single map[string]json.RawMessage
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		return []json.RawMessage{raw}
	}

	return nil
}
