package telemetry_test

import (
	"context"
	"testing"

	"worksmart/internal/platform/telemetry"
)

func TestSetupIsNoopWithoutEndpoint(t *testing.T) {
	t.Parallel()
	for _, opts := range []telemetry.Options{
		{ServiceName: "worksmart", Enabled: true},
		{ServiceName: "worksmart", Endpoint: "http://127.0.0.1:4318", Enabled: false},
	} {
		shutdown, err := telemetry.Setup(context.Background(), opts)
		if err != nil {
			t.Fatalf("setup %+v: %v", opts, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("noop shutdown: %v", err)
		}
	}
}
