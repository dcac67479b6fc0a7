package config_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	sttmock "github.com/MrWong99/enunciate/pkg/provider/stt/mock"
)

func TestRegistry_CreateSTT(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	var gotEntry config.ProviderEntry
	reg.RegisterSTT("mock", func(e config.ProviderEntry) (stt.Provider, error) {
		gotEntry = e
		return &sttmock.Provider{}, nil
	})

	p, err := reg.CreateSTT(config.ProviderEntry{Name: "mock", Model: "tiny"})
	if err != nil {
		t.Fatalf("CreateSTT: %v", err)
	}
	if p == nil {
		t.Fatal("CreateSTT returned nil provider")
	}
	if gotEntry.Model != "tiny" {
		t.Errorf("factory entry model = %q, want tiny", gotEntry.Model)
	}
}

func TestRegistry_NotRegistered(t *testing.T) {
	t.Parallel()

	_, err := config.NewRegistry().CreateSTT(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_STTNames(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	factory := func(config.ProviderEntry) (stt.Provider, error) { return &sttmock.Provider{}, nil }
	reg.RegisterSTT("whisper", factory)
	reg.RegisterSTT("mock", factory)
	reg.RegisterSTT("mock", factory)

	if got, want := reg.STTNames(), []string{"mock", "whisper"}; !slices.Equal(got, want) {
		t.Errorf("STTNames() = %v, want %v", got, want)
	}
}
