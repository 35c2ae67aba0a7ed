package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/hydrx"
	s3bucket "github.com/hengadev/hydrx/providers/s3"
)

const mealSource = `package meals

import "time"

type MealTime struct {
	Time      time.Time ` + "`hydrate:\"MealTime\"`" + `
	TimeOfDay time.Duration
}

type Meal struct {
	MealTime
	Name   string ` + "`hydrate:\"MealName\"`" + `
	Guests int
	Notes  string ` + "`hydrate:\"-\"`" + `
}
`

const brokenSource = `package broken

type Broken struct {
	Name  string
	Label string ` + "`hydrate:\"Name\"`" + `
}
`

type mockS3Client struct {
	bucket, key string
	body        string
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.bucket = aws.ToString(params.Bucket)
	m.key = aws.ToString(params.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func writePackage(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.go"), []byte(source), 0644))
	return dir
}

func execute(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	if env == nil {
		env = &Env{}
	}
	env.Ctx = context.Background()
	env.Out = &out

	exited := -1
	err := run(args, env, &stderr, func(code int) { exited = code })
	assert.Equal(t, -1, exited, "unexpected exit: %s", stderr.String())
	return out.String(), err
}

func TestPlan(t *testing.T) {
	dir := writePackage(t, mealSource)
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")

	out, err := execute(t, nil, "--config", cfg, "plan", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "meals.Meal (types.go:")
	assert.Contains(t, out, "meals.MealTime (types.go:")
	assert.Contains(t, out, "MealTime\tMealTime.Time\ttime.Time")
	assert.Contains(t, out, "MealName\tName\tstring")
	assert.Contains(t, out, "Guests\tGuests\tint")
	assert.NotContains(t, out, "Notes")

	mealAt := strings.Index(out, "meals.Meal (")
	timeAt := strings.Index(out[mealAt:], "MealTime\t")
	nameAt := strings.Index(out[mealAt:], "MealName\t")
	assert.Less(t, timeAt, nameAt, "keys must be listed in plan order")
}

func TestPlanReportsDuplicateKeys(t *testing.T) {
	dir := writePackage(t, brokenSource)
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")

	out, err := execute(t, nil, "--config", cfg, "plan", dir)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "✗ duplicate key 'Name' on 'Label'")
}

func TestPlanTagFromConfig(t *testing.T) {
	dir := writePackage(t, `package rows

type Row struct {
	ID int `+"`db:\"id\"`"+`
}
`)
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")
	c := hydrx.DefaultConfig()
	c.TagName = "db"
	require.NoError(t, hydrx.SaveConfigFile(c, cfg))

	out, err := execute(t, nil, "--config", cfg, "plan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "id\tID\tint")
}

func TestInitAndValidate(t *testing.T) {
	dir := writePackage(t, mealSource)
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")

	out, err := execute(t, nil, "--config", cfg, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created!")

	loaded, err := hydrx.LoadConfigFile(cfg)
	require.NoError(t, err)
	assert.Equal(t, hydrx.DefaultConfig(), loaded)

	_, err = execute(t, nil, "--config", cfg, "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, nil, "--config", cfg, "init", "--force")
	assert.NoError(t, err)

	out, err = execute(t, nil, "--config", cfg, "validate", "-v", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration file is valid")
	assert.Contains(t, out, "Found 2 structs with hydrate tags")
	assert.Contains(t, out, "✓ Meal.Name: MealName")
	assert.Contains(t, out, "✓ All validations passed!")
}

func TestValidateFailures(t *testing.T) {
	cfgDir := t.TempDir()

	_, err := execute(t, nil, "--config", filepath.Join(cfgDir, "missing.yaml"), "validate")
	assert.ErrorContains(t, err, "config file not found")

	bad := filepath.Join(cfgDir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: -3\n"), 0644))
	_, err = execute(t, nil, "--config", bad, "validate")
	assert.ErrorContains(t, err, "configuration validation failed")

	good := filepath.Join(cfgDir, "hydrx.yaml")
	require.NoError(t, hydrx.SaveConfigFile(hydrx.DefaultConfig(), good))
	out, err := execute(t, nil, "--config", good, "validate", writePackage(t, brokenSource))
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "Validation failed with errors.")
}

func TestCoverageCSV(t *testing.T) {
	dir := writePackage(t, mealSource)
	src := filepath.Join(t.TempDir(), "meals.csv")
	require.NoError(t, os.WriteFile(src, []byte("MealName,Guests,Chef\nDinner,4,Ana\n"), 0644))
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")

	out, err := execute(t, nil, "--config", cfg, "coverage", "--type", "Meal", "--source", src, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 rows)")
	assert.Contains(t, out, "missing: MealTime")
	assert.Contains(t, out, "missing: TimeOfDay")
	assert.Contains(t, out, "unused:  Chef")

	_, err = execute(t, nil, "--config", cfg, "coverage", "--type", "Meal", "--source", src, "--strict", dir)
	assert.ErrorIs(t, err, errFailed)

	_, err = execute(t, nil, "--config", cfg, "coverage", "--type", "Nope", "--source", src, dir)
	assert.ErrorContains(t, err, "struct Nope not found")
}

func TestCoverageS3(t *testing.T) {
	dir := writePackage(t, mealSource)
	cfg := filepath.Join(t.TempDir(), "hydrx.yaml")
	client := &mockS3Client{body: "MealTime,TimeOfDay,MealName,Guests\n2024-05-01,19h,Dinner,4\n"}

	out, err := execute(t, &Env{S3: client}, "--config", cfg,
		"coverage", "--type", "Meal", "--source", "s3://meals/2024/may.csv", "--strict", dir)
	require.NoError(t, err)
	assert.Equal(t, "meals", client.bucket)
	assert.Equal(t, "2024/may.csv", client.key)
	assert.Contains(t, out, "✓ Every key has a column")

	_, err = execute(t, &Env{S3: client}, "--config", cfg,
		"coverage", "--type", "Meal", "--source", "s3://meals", dir)
	assert.ErrorIs(t, err, s3bucket.ErrInvalidURI)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hydrx v"+hydrx.Version)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, nil, "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "failed to initialize logger")
}
