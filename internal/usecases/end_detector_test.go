package usecases

import "testing"

func TestIsEnding(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Gracias por llamar, hasta luego", true},
		{"¡Adiós y que tenga un buen día!", true},
		{"HASTA PRONTO", true},
		{"Thank you for calling, goodbye!", true},
		{"Nos vemos mañana a las diez", true},
		{"Quiero hacer un pedido", false},
		{"El horario es de nueve a seis", false},
		{"¿Puede repetir su nombre, por favor?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsEnding(tt.text); got != tt.want {
				t.Errorf("IsEnding(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
