package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/wonny/revcast/pkg/httputil"
	"github.com/wonny/revcast/pkg/logger"
)

// Example_postJSON demonstrates delivering a JSON payload to a webhook
func Example_postJSON() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	// Create HTTP client (SSOT)
	client := httputil.New(5*time.Second, logger.NewNop()).
		WithRetry(3, 100*time.Millisecond) // 3 retries, 100ms initial delay

	payload := map[string]interface{}{
		"run_id": "run-1",
		"alerts": 2,
	}
	if err := client.PostJSON(context.Background(), server.URL, payload); err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Println("delivered")
	// Output:
	// delivered
}
