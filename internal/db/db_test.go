package db

import (
	"context"
	"strings"
	"testing"
)

func TestConnectRejectsMalformedURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz")
	if err == nil {
		t.Fatal("expected error for malformed url")
	}
	if !strings.Contains(err.Error(), "parse database url") {
		t.Fatalf("expected parse error got %v", err)
	}
}
