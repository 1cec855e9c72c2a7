package vision

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

// idSchema constrains the JSON the model returns for an identity
// document. Every field is nullable; the model is told to use null for
// anything it cannot read.
var idSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"id_type":         nullable("string"),
		"full_name":       nullable("string"),
		"first_name":      nullable("string"),
		"middle_name":     nullable("string"),
		"last_name":       nullable("string"),
		"dob":             nullable("string"),
		"expiration_date": nullable("string"),
		"license_number":  nullable("string"),
		"sex":             nullable("string"),
		"height":          nullable("string"),
		"weight":          nullable("string"),
		"eye_color":       nullable("string"),
		"hair_color":      nullable("string"),
		"issuing_state":   nullable("string"),
		"issue_date":      nullable("string"),
		"address": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"street": nullable("string"),
				"city":   nullable("string"),
				"state":  nullable("string"),
				"zip":    nullable("string"),
			},
		},
	},
}

// invoiceSchema constrains the JSON for an invoice or shift-report page.
var invoiceSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"doc_type": nullable("string"),
		"vendor": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"name":      nullable("string"),
				"phone":     nullable("string"),
				"address":   nullable("string"),
				"website":   nullable("string"),
				"vendor_id": nullable("string"),
			},
		},
		"invoice_details": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"number":    nullable("string"),
				"date":      nullable("string"),
				"due_date":  nullable("string"),
				"po_number": nullable("string"),
				"terms":     nullable("string"),
			},
		},
		"financials": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"total_amount": nullable("number"),
				"subtotal":     nullable("number"),
				"tax":          nullable("number"),
				"tax_rate":     nullable("number"),
				"shipping":     nullable("number"),
				"credits":      nullable("number"),
				"balance_due":  nullable("number"),
				"currency":     nullable("string"),
			},
		},
		"line_items": map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"item_number":     nullable("number"),
					"description":     nullable("string"),
					"brand":           nullable("string"),
					"upc":             nullable("string"),
					"sku":             nullable("string"),
					"product_code":    nullable("string"),
					"quantity":        nullable("number"),
					"unit_of_measure": nullable("string"),
					"pack_size":       nullable("string"),
					"unit_price":      nullable("number"),
					"total_price":     nullable("number"),
					"category":        nullable("string"),
				},
			},
		},
		"shift_report_details": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"total_sales":       nullable("number"),
				"fuel_sales":        nullable("number"),
				"merch_sales":       nullable("number"),
				"cash_drop":         nullable("number"),
				"credit_card_sales": nullable("number"),
				"cash_sales":        nullable("number"),
			},
		},
	},
}

// validateAgainstSchema validates raw model output against one of the
// schema maps above before it is allowed anywhere near the typed records.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
