package domain

import (
	"reflect"
	"testing"
)

func TestDefaultSelection(t *testing.T) {
	t.Parallel()

	s := DefaultSelection()
	for _, c := range AllPriceCategories {
		if !s.CategoryEnabled(c) {
			t.Errorf("Expected %s to be enabled by default", c)
		}
	}
	if !s.IsSelected("Anything") {
		t.Error("Expected every name to be selected by default")
	}
}

func TestSelectionIsImmutable(t *testing.T) {
	t.Parallel()

	base := DefaultSelection()
	deselected := base.Deselect("Evolving Wilds")

	if !base.IsSelected("Evolving Wilds") {
		t.Error("Deselect must not modify the receiver")
	}
	if deselected.IsSelected("Evolving Wilds") {
		t.Error("Expected Evolving Wilds to be deselected")
	}

	restored := deselected.Select("Evolving Wilds")
	if !restored.IsSelected("Evolving Wilds") {
		t.Error("Expected Evolving Wilds to be selected again")
	}
	if deselected.IsSelected("Evolving Wilds") {
		t.Error("Select must not modify the receiver")
	}

	noLow := base.WithCategory(PriceLow, false)
	if !base.CategoryEnabled(PriceLow) {
		t.Error("WithCategory must not modify the receiver")
	}
	if noLow.CategoryEnabled(PriceLow) {
		t.Error("Expected LOW to be disabled")
	}
}

func TestSelectionToggle(t *testing.T) {
	t.Parallel()

	s := DefaultSelection().Toggle("Island")
	if s.IsSelected("Island") {
		t.Error("Expected first toggle to deselect")
	}
	s = s.Toggle("Island")
	if !s.IsSelected("Island") {
		t.Error("Expected second toggle to reselect")
	}
}

func TestNewSelection(t *testing.T) {
	t.Parallel()

	s := NewSelection([]string{"b", "a"}, []PriceCategory{PriceHigh, "BOGUS", PriceLow})

	if got := s.Deselected(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected sorted deselected names, got %v", got)
	}
	if got := s.EnabledCategories(); !reflect.DeepEqual(got, []PriceCategory{PriceLow, PriceHigh}) {
		t.Errorf("Expected [LOW HIGH], got %v", got)
	}
}
