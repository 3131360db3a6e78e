package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"
)

// ----------------------------------------------------------------------------
// Config ---------------------------------------------------------------------
var (
	baseURL = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	userID  = flag.String("user", env("USER_ID", "000000000000000000000001"), "Owner user id (24-char hex)")
	secret  = flag.String("secret", env("JWT_SECRET", ""), "JWT signing secret of the target server")
	nNotes  = flag.Int("n", envInt("COUNT", 100), "How many notes to create")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		i, err := fmt.Sscan(v, &i)
		if err != nil {
			return def
		}
		if i > 0 {
			return i
		}
	}
	return def
}

// ----------------------------------------------------------------------------
// HTTP helpers ---------------------------------------------------------------
func postJSON(path string, body any, hdr map[string]string) (*http.Response, error) {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, *baseURL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return http.DefaultClient.Do(req)
}

func must(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

// ----------------------------------------------------------------------------
// Main -----------------------------------------------------------------------
func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "FATAL: JWT_SECRET is required (must match the target server)")
		os.Exit(1)
	}

	fmt.Printf("Seeding %d notes for user %s on %s\n", *nNotes, *userID, *baseURL)

	token, err := mintToken(*userID, *secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := createNotes(token, *nNotes); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("✔ done")
}

// ----------------------------------------------------------------------------
// Step 1 – mint a token the server will accept --------------------------------
func mintToken(userID, secret string) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(1 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ----------------------------------------------------------------------------
// Step 2 – create notes -------------------------------------------------------
func createNotes(token string, total int) error {
	h := map[string]string{"Authorization": "Bearer " + token}

	for i := 1; i <= total; i++ {
		note := map[string]any{
			"title":   gofakeit.Sentence(3),
			"content": "<p>" + gofakeit.Paragraph(1, 3, 40, " ") + "</p>",
		}

		resp, err := postJSON("/api/v1/notes", note, h)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("create note %d failed (%d): %s", i, resp.StatusCode, must(resp.Body))
		}

		if i%50 == 0 || i == total {
			fmt.Printf("  … %d/%d\n", i, total)
		}
	}
	return nil
}
