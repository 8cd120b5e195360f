package usecases

import (
	"encoding/json"
	"testing"
)

func TestNormalizeAIReply(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"bare json string", `"Hola, ¿en qué puedo ayudarle?"`, "Hola, ¿en qué puedo ayudarle?", true},
		{"response envelope", `{"response": "Abrimos a las nueve"}`, "Abrimos a las nueve", true},
		{"content envelope", `{"content": "Hola"}`, "Hola", true},
		{"response wins over content", `{"response": "primero", "content": "segundo"}`, "primero", true},
		{"raw text body", `Hola sin comillas`, "Hola sin comillas", true},
		{"whitespace trimmed", `"  Hola  "`, "Hola", true},
		{"empty string", `""`, "", false},
		{"empty body", ``, "", false},
		{"empty envelope", `{"other": 1}`, "", false},
		{"json array", `["Hola"]`, "", false},
		{"json number", `42`, "", false},
		{"json boolean", `true`, "", false},
		{"json null", `null`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAIReply(json.RawMessage(tt.raw))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NormalizeAIReply(%s) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
