// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// Task types follow domain.subject.action, e.g. portfolio.score.compute.
var taskTypePattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Validate checks the catalog as a whole: unique IDs, well-formed task types,
// and input/output schemas that actually compile as JSON Schema.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool, len(r.Activities))
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: id")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: displayName", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: category", activity.ID)
		}
		if !taskTypePattern.MatchString(activity.TaskType) {
			return fmt.Errorf("activity %s: task type %q must follow domain.subject.action", activity.ID, activity.TaskType)
		}

		for name, schema := range map[string]map[string]interface{}{
			"inputSchema":  activity.InputSchema,
			"outputSchema": activity.OutputSchema,
		} {
			if len(schema) == 0 {
				continue
			}
			if err := compileSchema(schema); err != nil {
				return fmt.Errorf("activity %s: %s does not compile: %w", activity.ID, name, err)
			}
		}
	}

	return nil
}

// compileSchema checks that a schema document compiles. gojsonschema panics
// on some malformed documents instead of returning an error; a hand-edited
// registry file must surface as a validation error, not a crash.
func compileSchema(schema map[string]interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed schema document: %v", r)
		}
	}()
	_, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	return err
}

// Find returns the activity registered for a task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// ValidateVariables checks job variables against an activity's input schema.
// An activity without a schema accepts anything.
func (a *Activity) ValidateVariables(variables map[string]interface{}) (err error) {
	if len(a.InputSchema) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schema validation for %s: malformed schema document: %v", a.TaskType, r)
		}
	}()

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(a.InputSchema),
		gojsonschema.NewGoLoader(variables),
	)
	if err != nil {
		return fmt.Errorf("schema validation for %s: %w", a.TaskType, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("variables invalid for %s: %v", a.TaskType, msgs)
	}
	return nil
}
