package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Media is a product media item created by AttachModel.
type Media struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

const productCreateMediaMutation = `mutation productCreateMedia($productId:ID!, $media:[CreateMediaInput!]!) {
	productCreateMedia(productId: $productId, media: $media) {
		media { id status }
		mediaUserErrors { field message code }
	}
}`

// AttachModel attaches an uploaded resource to a product as MODEL_3D media.
func (c *Client) AttachModel(ctx context.Context, productID, resourceURL string) (Media, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(resourceURL) == "" {
		return Media{}, fmt.Errorf("attach model: product id and resource url required")
	}
	var data struct {
		ProductCreateMedia struct {
			Media           []Media     `json:"media"`
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productCreateMedia"`
	}
	vars := map[string]any{
		"productId": productID,
		"media": []any{map[string]any{
			"originalSource":   resourceURL,
			"mediaContentType": MediaContentTypeModel3D,
		}},
	}
	if err := c.do(ctx, "productCreateMedia", productCreateMediaMutation, vars, &data); err != nil {
		return Media{}, err
	}
	payload := data.ProductCreateMedia
	if err := newUserErrors("productCreateMedia", payload.MediaUserErrors); err != nil {
		return Media{}, err
	}
	var media Media
	if len(payload.Media) > 0 {
		media = payload.Media[0]
	}
	return media, nil
}
