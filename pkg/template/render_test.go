package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicbook/notify/pkg/template"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		params   template.Params
		expected string
	}{
		{
			name:     "substitutes single placeholder",
			text:     "Hello {PatientName}",
			params:   template.Params{"PatientName": "Alice"},
			expected: "Hello Alice",
		},
		{
			name: "substitutes repeated placeholder",
			text: "{DoctorName} confirmed. See you, {DoctorName}!",
			params: template.Params{
				"DoctorName": "Dr. Lee",
			},
			expected: "Dr. Lee confirmed. See you, Dr. Lee!",
		},
		{
			name:     "leaves unmatched placeholder verbatim",
			text:     "Hello {PatientName}, your visit on {AppointmentDate}",
			params:   template.Params{"PatientName": "Bob"},
			expected: "Hello Bob, your visit on {AppointmentDate}",
		},
		{
			name:     "empty params returns text unchanged",
			text:     "Hello {PatientName}",
			params:   template.Params{},
			expected: "Hello {PatientName}",
		},
		{
			name:     "nil params returns text unchanged",
			text:     "Hello {PatientName}",
			params:   nil,
			expected: "Hello {PatientName}",
		},
		{
			name:     "empty text stays empty",
			text:     "",
			params:   template.Params{"PatientName": "Alice"},
			expected: "",
		},
		{
			name:     "non-string values are formatted",
			text:     "You have {Count} appointments",
			params:   template.Params{"Count": 3},
			expected: "You have 3 appointments",
		},
		{
			name:     "extra params are ignored",
			text:     "Hello {PatientName}",
			params:   template.Params{"PatientName": "Alice", "Unused": "x"},
			expected: "Hello Alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, template.Render(tt.text, tt.params))
		})
	}
}
