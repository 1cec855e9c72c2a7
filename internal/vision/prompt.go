package vision

const idPrompt = `Analyze this image of an identity document (driver's license, state ID, or passport).

Extract the following as JSON:
{
    "id_type": "Driver's License" | "State ID" | "Passport" | "Other",
    "full_name": "string (name as printed)",
    "first_name": "string",
    "middle_name": "string",
    "last_name": "string",
    "address": {
        "street": "string (number and street, including unit)",
        "city": "string",
        "state": "string (2-letter code)",
        "zip": "string"
    },
    "dob": "MM/DD/YYYY",
    "expiration_date": "MM/DD/YYYY",
    "license_number": "string",
    "sex": "M" | "F",
    "height": "string",
    "weight": "string",
    "eye_color": "string",
    "hair_color": "string",
    "issuing_state": "string (2-letter code)",
    "issue_date": "MM/DD/YYYY"
}

RULES:
1. If a field is missing or unreadable, use null (not empty string).
2. Dates must be MM/DD/YYYY.
3. Transcribe the name exactly as printed, including middle names or initials.
4. Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`

const invoicePrompt = `Analyze this image. It is likely an Invoice, Receipt, or Shift Report.

EXTRACT THE FOLLOWING AS JSON WITH MAXIMUM DETAIL FOR POS INTEGRATION:
{
    "doc_type": "Invoice" | "Shift Report" | "Lottery Report" | "Receipt" | "Other",
    "vendor": {
        "name": "string",
        "phone": "string",
        "address": "string",
        "website": "string",
        "vendor_id": "string (if visible)"
    },
    "invoice_details": {
        "number": "string",
        "date": "YYYY-MM-DD",
        "due_date": "YYYY-MM-DD",
        "po_number": "string",
        "terms": "string (e.g., Net 30)"
    },
    "financials": {
        "total_amount": "number (float)",
        "subtotal": "number",
        "tax": "number",
        "tax_rate": "number (percentage if visible)",
        "shipping": "number",
        "credits": "number (negative if credit)",
        "balance_due": "number",
        "currency": "string (default: USD)"
    },
    "line_items": [
        {
            "item_number": "number (line number on invoice)",
            "description": "string (full product name/description)",
            "brand": "string (extract brand if visible)",
            "upc": "string (UPC/EAN barcode if visible)",
            "sku": "string (SKU/product code)",
            "product_code": "string (alternative product code)",
            "quantity": "number",
            "unit_of_measure": "string (EA, CS, BX, LB, OZ, GAL, etc.)",
            "pack_size": "string (e.g., 12-pack, 24oz, 6ct)",
            "unit_price": "number",
            "total_price": "number",
            "category": "string (Food, Beverage, Tobacco, etc.)"
        }
    ],
    "shift_report_details": {
        "total_sales": "number",
        "fuel_sales": "number",
        "merch_sales": "number",
        "cash_drop": "number",
        "credit_card_sales": "number",
        "cash_sales": "number"
    }
}

CRITICAL RULES FOR POS INTEGRATION:
1. If it's a "Shift Report" or "Night Audit", use shift_report_details heavily.
2. If it's an Invoice, extract EVERY SINGLE line item into line_items.
3. For each line item, extract UPC codes, SKU or product codes, unit of
   measure (EA, CS, CASE, BOX, LB, OZ, GAL, etc.), pack size (12-pack,
   6ct, 24oz bottle, etc.), and brand name if identifiable.
4. Extract date formats to YYYY-MM-DD.
5. For unit_of_measure, standardize to common codes: EA (Each), CS (Case),
   BX (Box), LB (Pound), OZ (Ounce), GAL (Gallon). If unclear, use the
   abbreviation from the invoice.
6. If a field is missing, use null (not empty string).
7. Look for vendor ID numbers, account numbers, or customer codes.
8. Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`
