package twiml

import (
	"strings"
	"testing"
)

func TestValidateRequiresSpeechAndOneAction(t *testing.T) {
	tests := []struct {
		name    string
		doc     *ControlDocument
		wantErr bool
	}{
		{"say plus record", New().WithAudio("", "Hola", "es-ES").WithRecord("/voice/recording", 30, 5, "#"), false},
		{"play plus hangup", New().WithAudio("https://cdn.example.com/a.mp3", "", "es-ES").WithHangup("", "es-ES"), false},
		{"closing line plus hangup", New().WithHangup("Hasta pronto", "es-ES"), false},
		{"no speech", New().WithRecord("/voice/recording", 30, 5, "#"), true},
		{"no action", New().WithAudio("", "Hola", "es-ES"), true},
		{"both actions", New().WithAudio("", "Hola", "es-ES").WithRecord("/voice/recording", 30, 5, "#").WithHangup("", "es-ES"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderWellFormed(t *testing.T) {
	doc := New().
		WithAudio("https://cdn.example.com/greeting.mp3", "", "es-ES").
		WithRecord("/voice/recording", 30, 5, "#")

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := string(out)
	if !strings.HasPrefix(body, "<?xml") {
		t.Error("rendered document missing XML declaration")
	}
	for _, want := range []string{
		"<Response>",
		"<Play>https://cdn.example.com/greeting.mp3</Play>",
		`action="/voice/recording"`,
		`maxLength="30"`,
		`timeout="5"`,
		`finishOnKey="#"`,
		"</Response>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered document missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<Hangup") {
		t.Error("record document must not carry a hangup")
	}
}

func TestRenderFallbackSay(t *testing.T) {
	out, err := New().
		WithAudio("", "Hola, ¿en qué puedo ayudarle?", "es-ES").
		WithHangup("Gracias por su llamada.", "es-ES").
		Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := string(out)
	if !strings.Contains(body, `<Say language="es-ES">Hola, ¿en qué puedo ayudarle?</Say>`) {
		t.Errorf("missing spoken fallback:\n%s", body)
	}
	if !strings.Contains(body, "Gracias por su llamada.") {
		t.Errorf("missing closing line:\n%s", body)
	}
	if !strings.Contains(body, "<Hangup") {
		t.Errorf("missing hangup:\n%s", body)
	}
}

func TestRenderSpokenReplyWithClosingLine(t *testing.T) {
	out, err := New().
		WithAudio("", "Su cita queda confirmada.", "es-ES").
		WithHangup("Gracias por su llamada.", "es-ES").
		Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := string(out)
	reply := strings.Index(body, "<Say language=\"es-ES\">Su cita queda confirmada.</Say>")
	closing := strings.Index(body, "<Say language=\"es-ES\">Gracias por su llamada.</Say>")
	hangup := strings.Index(body, "<Hangup")
	if reply == -1 || closing == -1 || hangup == -1 {
		t.Fatalf("missing verbs:\n%s", body)
	}
	if !(reply < closing && closing < hangup) {
		t.Errorf("verbs out of order (reply=%d closing=%d hangup=%d):\n%s", reply, closing, hangup, body)
	}
}

func TestRenderRefusesInvalidDocument(t *testing.T) {
	if _, err := New().Render(); err == nil {
		t.Fatal("Render() on an empty document should fail")
	}
}
