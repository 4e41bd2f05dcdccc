package validator

import (
	"errors"
	"testing"

	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
)

func TestGuideValidator_Validate(t *testing.T) {
	v := NewGuideValidator(logger.Discard())

	tests := []struct {
		name      string
		guide     model.Guide
		wantField string
	}{
		{
			name:  "valid guide",
			guide: model.Guide{Name: "Anouk Peeters", Email: "anouk@example.be", Phone: "+32470123456", Languages: []string{"nl", "en"}},
		},
		{
			name:      "missing name",
			guide:     model.Guide{Email: "anouk@example.be"},
			wantField: "Name",
		},
		{
			name:      "bad email",
			guide:     model.Guide{Name: "Anouk", Email: "not-an-email"},
			wantField: "Email",
		},
		{
			name:      "local phone format",
			guide:     model.Guide{Name: "Anouk", Email: "anouk@example.be", Phone: "0470123456"},
			wantField: "Phone",
		},
		{
			name:      "unsupported language",
			guide:     model.Guide{Name: "Anouk", Email: "anouk@example.be", Languages: []string{"nl", "xx"}},
			wantField: "Languages[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.guide)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, verrs[0].Field)
			}
		})
	}
}

func TestGuideValidator_ValidateUpdate(t *testing.T) {
	v := NewGuideValidator(logger.Discard())

	if err := v.ValidateUpdate(&model.GuideUpdate{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
	if err := v.ValidateUpdate(&model.GuideUpdate{Email: "nope"}); err == nil {
		t.Error("expected invalid email to be rejected")
	}
}
