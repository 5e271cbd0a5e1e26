package catalog

import (
	"context"
	"fmt"
	"strings"
)

// StatusKey is the metafield key that mirrors pipeline status on the product.
const StatusKey = "status"

const metafieldType = "single_line_text_field"

const metafieldsSetMutation = `mutation($id:ID!,$ns:String!,$key:String!,$type:String!,$value:String!){
	metafieldsSet(metafields:[{ownerId:$id, namespace:$ns, key:$key, type:$type, value:$value}]){
		userErrors{ field message }
	}
}`

// SetStatus writes value to the namespaced status metafield of a product.
func (c *Client) SetStatus(ctx context.Context, productID, value string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("set status: product id required")
	}
	var data struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	vars := map[string]any{
		"id":    productID,
		"ns":    c.namespace,
		"key":   StatusKey,
		"type":  metafieldType,
		"value": value,
	}
	if err := c.do(ctx, "metafieldsSet", metafieldsSetMutation, vars, &data); err != nil {
		return err
	}
	return newUserErrors("metafieldsSet", data.MetafieldsSet.UserErrors)
}
