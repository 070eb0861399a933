package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientSuggestRequest(t *testing.T) {
	const expectedURL = "http://maps.test/v1/places:autocomplete"
	respBody := `{"suggestions":[{"placePrediction":{"placeId":"place_123","text":{"text":"123 Demo St"}}}]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["input"] != "123 15th st sw" {
			t.Fatalf("unexpected input %q", payload["input"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient("test-key", WithBaseURL("http://maps.test/v1"), WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Suggest(context.Background(), SuggestRequest{
		Input:               "123 15th st sw",
		IncludedRegionCodes: []string{"US"},
		LanguageCode:        "en",
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != autocompleteFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if len(result) != 1 || result[0].PlaceID != "place_123" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientResolveMapsComponentsToFormFields(t *testing.T) {
	const expectedURL = "http://maps.test/v1/places/place_123"
	respBody := `{
		"id":"place_123",
		"formattedAddress":"123 Demo St, Portland, OR 97201, USA",
		"location":{"latitude":45.51,"longitude":-122.68},
		"addressComponents":[
			{"longText":"123","shortText":"123","types":["street_number"]},
			{"longText":"Demo Street","shortText":"Demo St","types":["route"]},
			{"longText":"Portland","shortText":"Portland","types":["locality","political"]},
			{"longText":"Oregon","shortText":"OR","types":["administrative_area_level_1","political"]},
			{"longText":"97201","shortText":"97201","types":["postal_code"]},
			{"longText":"United States","shortText":"US","types":["country","political"]}
		]
	}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Header.Get("X-Goog-FieldMask") != placeResolveFieldMask {
			t.Fatalf("unexpected field mask %q", req.Header.Get("X-Goog-FieldMask"))
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient("test-key", WithBaseURL("http://maps.test/v1"), WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	form, err := client.Resolve(context.Background(), "place_123")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if form.Line1 != "123 Demo Street" {
		t.Fatalf("unexpected line1 %q", form.Line1)
	}
	if form.City != "Portland" || form.State != "OR" || form.PostalCode != "97201" || form.Country != "US" {
		t.Fatalf("unexpected form fields %+v", form)
	}
	if form.Latitude != 45.51 || form.Longitude != -122.68 {
		t.Fatalf("unexpected location %+v", form)
	}
}

func TestFormAddressFallsBackToSublocality(t *testing.T) {
	form := formAddressFromComponents([]addressComponent{
		{LongName: "Brooklyn", ShortName: "Brooklyn", Types: []string{"sublocality_level_1", "political"}},
		{LongName: "New York", ShortName: "NY", Types: []string{"administrative_area_level_1"}},
	})
	if form.City != "Brooklyn" {
		t.Fatalf("expected sublocality fallback, got %q", form.City)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
