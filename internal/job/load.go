package job

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one schema violation in a job description.
type ValidationError struct {
	// Path is the dotted path of the offending value, empty for the root.
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DecodeError reports job input that is not well-formed YAML or JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding job: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Load reads a job from path, or from stdin when path is "-".
func Load(path string) (*Job, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read reads and decodes a job from r.
func Read(r io.Reader) (*Job, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading job: %w", err)
	}
	return Decode(data)
}

// Decode validates data against the job schema and decodes it.
//
// Every schema violation is reported: the returned error is then a
// *multierror.Error whose entries are *ValidationError.
func Decode(data []byte) (*Job, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if raw == nil {
		return nil, &DecodeError{Err: fmt.Errorf("empty job description")}
	}

	if err := Validate(raw); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var j Job
	if err := dec.Decode(&j); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &j, nil
}

// Validate checks a generic decoded document against the #Job schema.
func Validate(raw any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling job schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Job"))

	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return &DecodeError{Err: err}
	}

	err := def.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var result *multierror.Error
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		path := e.Path()
		if len(path) > 0 && path[0] == "#Job" {
			path = path[1:]
		}
		result = multierror.Append(result, &ValidationError{
			Path:    strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if result == nil {
		return &ValidationError{Message: err.Error()}
	}
	return result
}

// Check reports configuration problems the schema cannot express: every
// default field, after renaming, must be whitelisted, or any bare value in a
// query fails composition. It returns nil or a
// *multierror.Error of *ValidationError.
func (j *Job) Check() error {
	var result *multierror.Error

	if j.AllowedFields != nil {
		allowed := j.Whitelist()
		for _, f := range j.DefaultFields {
			target := f
			if to, ok := j.Renames[f]; ok {
				target = to
			}
			if !allowed.Allows(target) {
				result = multierror.Append(result, &ValidationError{
					Path:    "default_fields",
					Message: fmt.Sprintf("default field %q is not in allowed_fields", target),
				})
			}
		}
	}

	return result.ErrorOrNil()
}
