package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"auto3d/internal/logging"
	"auto3d/internal/services"
)

// ModelMIMEType is the content type of GLB uploads.
const ModelMIMEType = "model/gltf-binary"

// Staged upload resource kinds, in the order they are attempted.
const (
	ResourceModel3D = "MODEL_3D"
	ResourceFile    = "FILE"
)

// Parameter is a form field Shopify requires on the staged upload POST.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedTarget is an upload destination returned by stagedUploadsCreate.
type StagedTarget struct {
	URL         string      `json:"url"`
	ResourceURL string      `json:"resourceUrl"`
	Parameters  []Parameter `json:"parameters"`
	Resource    string      `json:"-"`
}

// Usable reports whether the target can receive an upload.
func (t StagedTarget) Usable() bool {
	return strings.TrimSpace(t.URL) != ""
}

const stagedUploadsMutation = `mutation($input:[StagedUploadInput!]!){
	stagedUploadsCreate(input:$input){
		stagedTargets{ url resourceUrl parameters{ name value } }
		userErrors{ field message }
	}
}`

// stageAttempt requests one staged target for the given resource kind.
func (c *Client) stageAttempt(ctx context.Context, resource, filename string, size int) (StagedTarget, []UserError, error) {
	input := map[string]any{
		"resource":   resource,
		"filename":   filename,
		"mimeType":   ModelMIMEType,
		"httpMethod": http.MethodPost,
	}
	if resource == ResourceModel3D {
		input["fileSize"] = strconv.Itoa(size)
	}
	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedTarget `json:"stagedTargets"`
			UserErrors    []UserError    `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	vars := map[string]any{"input": []any{input}}
	if err := c.do(ctx, "stagedUploadsCreate", stagedUploadsMutation, vars, &data); err != nil {
		return StagedTarget{}, nil, err
	}
	payload := data.StagedUploadsCreate
	var target StagedTarget
	if len(payload.StagedTargets) > 0 {
		target = payload.StagedTargets[0]
	}
	target.Resource = resource
	return target, payload.UserErrors, nil
}

// StageUpload requests an upload destination for a GLB file. It asks for a
// MODEL_3D target first and falls back to FILE only when that yields no usable
// URL. Transport and GraphQL errors abort immediately.
func (c *Client) StageUpload(ctx context.Context, filename string, size int) (StagedTarget, error) {
	model, modelErrs, err := c.stageAttempt(ctx, ResourceModel3D, filename, size)
	if err != nil {
		return StagedTarget{}, err
	}
	c.warnStageErrors(ResourceModel3D, modelErrs)
	if model.Usable() {
		return checkResourceURL(model)
	}

	file, fileErrs, err := c.stageAttempt(ctx, ResourceFile, filename, size)
	if err != nil {
		return StagedTarget{}, err
	}
	c.warnStageErrors(ResourceFile, fileErrs)
	if file.Usable() {
		c.logger.Info("staged upload fell back",
			logging.String("resource", ResourceFile),
			logging.String(logging.FieldEventType, "staged_upload_fallback"))
		return checkResourceURL(file)
	}
	return StagedTarget{}, &StageError{ModelErrors: modelErrs, FileErrors: fileErrs}
}

func (c *Client) warnStageErrors(resource string, userErrs []UserError) {
	if len(userErrs) == 0 {
		return
	}
	impact := "falling back to FILE if no target was returned"
	if resource == ResourceFile {
		impact = "upload fails if no target was returned"
	}
	logging.WarnWithContext(c.logger, "staged upload returned user errors", "staged_upload_user_errors",
		logging.String("resource", resource),
		logging.String("error", (&UserErrors{Op: "stagedUploadsCreate", Errors: userErrs}).Error()),
		logging.String(logging.FieldImpact, impact),
	)
}

func checkResourceURL(target StagedTarget) (StagedTarget, error) {
	if strings.TrimSpace(target.ResourceURL) == "" {
		return StagedTarget{}, services.Wrap(services.ErrValidation, "upload", "stagedUploadsCreate",
			fmt.Sprintf("%s target has upload url but no resourceUrl; %d parameters", target.Resource, len(target.Parameters)), nil)
	}
	return target, nil
}

// StageError reports that neither resource kind produced a usable target.
type StageError struct {
	ModelErrors []UserError
	FileErrors  []UserError
}

func (e *StageError) Unwrap() error { return services.ErrValidation }

func (e *StageError) Error() string {
	return fmt.Sprintf("stagedUploadsCreate did not return a valid upload url: MODEL_3D errors=%s, FILE errors=%s",
		joinUserErrors(e.ModelErrors), joinUserErrors(e.FileErrors))
}

func joinUserErrors(errs []UserError) string {
	if len(errs) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Upload pushes data to a staged target as multipart form data: every target
// parameter first, then the file part.
func (c *Client) Upload(ctx context.Context, target StagedTarget, filename string, data []byte) error {
	if !target.Usable() {
		return errors.New("upload: target has no url")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, param := range target.Parameters {
		if err := writer.WriteField(param.Name, param.Value); err != nil {
			return fmt.Errorf("upload: write field %s: %w", param.Name, err)
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", ModelMIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("upload: create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("upload: write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("upload: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("upload: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: "staged upload", StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("staged upload complete",
		logging.Int("status_code", resp.StatusCode),
		logging.Int("size_bytes", len(data)))
	return nil
}
