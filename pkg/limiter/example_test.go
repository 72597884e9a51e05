package limiter

import (
	"context"
	"fmt"
	"time"
)

func ExampleLimiter() {
	l := New(NewMemoryStore(), nil)

	cfg := Config{
		MaxRequests: 5,
		Window:      time.Minute,
		Identifier:  "user:42",
		Endpoint:    "certificates",
	}

	res := l.CheckKey(context.Background(), cfg)

	fmt.Println(res.Success, res.Remaining)
	// Output:
	// true 4
}
