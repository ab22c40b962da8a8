package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/stratts/vaultbak/schema"
)

//go:embed info.schema.json
var infoSchema []byte

//go:embed version.schema.json
var versionSchema []byte

// EncodeInfo renders an Info record with sorted keys and 4-space indentation.
func EncodeInfo(info Info) ([]byte, error) {
	return json.MarshalIndent(info, "", "    ")
}

// DecodeInfo validates raw JSON against the info schema and unmarshals it.
func DecodeInfo(data []byte) (Info, error) {
	var info Info
	if err := validate(infoSchema, data); err != nil {
		return info, fmt.Errorf("info.json: %w", err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("info.json: %w", err)
	}
	return info, nil
}

// EncodeVersion renders a Version manifest with sorted keys (Go marshals
// map[string]FileRecord keys in sorted order) and 4-space indentation, so
// two manifests with the same content always produce identical bytes.
func EncodeVersion(v Version) ([]byte, error) {
	return json.MarshalIndent(v, "", "    ")
}

// DecodeVersion validates raw JSON against the version schema and unmarshals it.
func DecodeVersion(data []byte) (Version, error) {
	var v Version
	if err := validate(versionSchema, data); err != nil {
		return v, fmt.Errorf("version.json: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("version.json: %w", err)
	}
	return v, nil
}

func validate(schemaDoc, data []byte) error {
	validator, err := schema.NewValidator(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to build schema validator: %w", err)
	}
	diags, err := validator.ValidateJSON(data)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if verrs := schema.DiagnosticsToValidationErrors(diags); len(verrs) > 0 {
		return verrs
	}
	return nil
}
