package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc returned error: %v", err)
	}

	var doc struct {
		Swagger string `json:"swagger"`
		Info    struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("swagger document is not valid JSON: %v", err)
	}
	if doc.Swagger != "2.0" || doc.Info.Title != "plan2protect API" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if doc.Info.Description != "Users, plans, floor-plan assessments and administrator analytics." {
		t.Fatalf("description out of step with cmd/api: %q", doc.Info.Description)
	}
	if len(doc.Paths) == 0 {
		t.Fatal("swagger document has no paths")
	}
}
