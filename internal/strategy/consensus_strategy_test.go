package strategy

import "testing"

func TestFirstMatchStrategy_ReturnsFirstInOrder(t *testing.T) {
	s := NewFirstMatchStrategy()
	got := s.Select([]string{"#c89664", "#b48c5a", "#dca06e"})
	if got != "#c89664" {
		t.Errorf("Expected #c89664, got %s", got)
	}
}

func TestFirstMatchStrategy_IgnoresFrequency(t *testing.T) {
	s := NewFirstMatchStrategy()
	got := s.Select([]string{"#010101", "#202020", "#202020"})
	if got != "#010101" {
		t.Errorf("Expected first candidate regardless of repeats, got %s", got)
	}
}

func TestNearestColorStrategy_PicksMedoid(t *testing.T) {
	s := NewNearestColorStrategy()

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"single candidate", []string{"#123456"}, "#123456"},
		{"outlier first", []string{"#000000", "#808080", "#909090"}, "#808080"},
		{"two candidates tie goes to earliest", []string{"#ff0000", "#00ff00"}, "#ff0000"},
		{"unparseable skipped", []string{"nope", "#000000", "#808080", "#909090"}, "#808080"},
		{"nothing parses", []string{"nope", "bad"}, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Select(tt.candidates); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", FirstMatch, false},
		{FirstMatch, FirstMatch, false},
		{NearestColor, NearestColor, false},
		{"mode", "", true},
	}

	for _, tt := range tests {
		t.Run("strategy_"+tt.name, func(t *testing.T) {
			s, err := New(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error for unknown strategy")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.GetStrategyName() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, s.GetStrategyName())
			}
		})
	}
}
