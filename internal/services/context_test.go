package services_test

import (
	"context"
	"testing"

	"auto3d/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProductID(ctx, "gid://shopify/Product/42")
	ctx = services.WithStage(ctx, "generate")
	ctx = services.WithRequestID(ctx, "run-123")

	if id, ok := services.ProductIDFromContext(ctx); !ok || id != "gid://shopify/Product/42" {
		t.Fatalf("unexpected product id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "generate" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithProductID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ProductIDFromContext(ctx); ok {
		t.Fatal("expected no product id value")
	}
}
