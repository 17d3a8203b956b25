package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "ja_JP")
				r.Header.Set("Accept-Language", "en-US")
			},
			country: "CN",
			want:    "ja-JP",
		},
		{
			name: "traditional chinese from region",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "zh-TW")
			},
			want: "zh-Hant",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en-US",
		},
		{
			name: "accept-language quality ordering",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en;q=0.5,zh-CN;q=0.9")
			},
			want: "zh-Hans",
		},
		{
			name:     "invalid header ignored",
			setup:    func(r *http.Request) { r.Header.Set("X-Locale", "!!") },
			fallback: "zh-Hans",
			want:     "zh-Hans",
		},
		{
			name:     "country hk",
			country:  "hk",
			fallback: "en",
			want:     "zh-Hant",
		},
		{
			name:     "country sg",
			country:  "SG",
			fallback: "en",
			want:     "zh-Hans",
		},
		{
			name:     "other country uses fallback",
			country:  "US",
			fallback: "zh-Hans",
			want:     "zh-Hans",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			got := detectLocale(req, tc.fallback, tc.country)
			if got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "header precedence",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "tw")
				r.Header.Set("CF-IPCountry", "cn")
			},
			want: "TW",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return "cn", nil
			},
			want: "CN",
		},
		{
			name: "resolver error returns empty",
			resolver: func(ip string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
		{
			name: "no hints",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			got := ResolveCountry(req, tc.resolver)
			if got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NStoresLocaleAndCountry(t *testing.T) {
	var gotLocale, gotCountry string
	h := I18N("zh-Hans", func(ip string) (string, error) { return "hk", nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotLocale != "zh-Hant" || gotCountry != "HK" {
		t.Fatalf("locale = %q country = %q", gotLocale, gotCountry)
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "" {
		t.Fatalf("LocaleFromContext() default = %q, want empty", got)
	}
	ctx = context.WithValue(ctx, LocaleKey, "en")
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("LocaleFromContext() with value = %q, want %q", got, "en")
	}
}
