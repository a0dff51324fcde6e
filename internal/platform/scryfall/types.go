package scryfall

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// SearchResponse is the subset of a search result list the application reads.
type SearchResponse struct {
	Object  string `json:"object"`
	HasMore bool   `json:"has_more"`
	Data    []Card `json:"data"`
}

// Card is one print in a search result.
type Card struct {
	Name          string     `json:"name"`
	SetName       string     `json:"set_name"`
	Promo         bool       `json:"promo"`
	Oversized     bool       `json:"oversized"`
	ColorIdentity []string   `json:"color_identity"`
	Colors        []string   `json:"colors"`
	Prices        Prices     `json:"prices"`
	ImageURIs     *ImageURIs `json:"image_uris"`
	CardFaces     []CardFace `json:"card_faces"`
}

// Prices holds market prices as decimal strings; absent prices are empty.
type Prices struct {
	USD string `json:"usd"`
}

// ImageURIs holds the image variants of a print or face.
type ImageURIs struct {
	Normal string `json:"normal"`
}

// CardFace is one face of a multi-faced print.
type CardFace struct {
	Name      string     `json:"name"`
	ImageURIs *ImageURIs `json:"image_uris"`
}

// IsList reports whether body is a search result list with a data array.
func IsList(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	result := gjson.GetManyBytes(body, "object", "data")
	return result[0].String() == "list" && result[1].IsArray()
}

// Decode parses a search result list.
// Returns ErrInvalidResponse when body is not a list.
func Decode(body []byte) (*SearchResponse, error) {
	if !IsList(body) {
		return nil, fmt.Errorf("%w: object %q", ErrInvalidResponse, gjson.GetBytes(body, "object").String())
	}
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}
