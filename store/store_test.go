package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/tmpl"
)

func TestApplyWritesOrderedStoreOps(t *testing.T) {
	ops := []spec.StoreOp{
		{Target: spec.TargetState, Path: "/region", Value: &spec.TemplateValue{Template: "{{answers.region}}"}},
		{Target: spec.TargetAnswers, Path: "/confirmed", Value: &spec.TemplateValue{Literal: json.RawMessage(`true`)}},
	}
	tmplCtx := tmpl.NewContext(spec.Context{Answers: map[string]any{"region": "us-east"}}, secrets.New(spec.SecretsPolicy{}))

	out, err := Apply(ops, Buckets{}, tmplCtx, nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east", out.State["region"])
	assert.Equal(t, true, out.Answers["confirmed"])
}

func TestApplyFailureLeavesOriginalUntouched(t *testing.T) {
	ops := []spec.StoreOp{
		{Target: spec.TargetAnswers, Path: "/a", Value: &spec.TemplateValue{Template: "{{answers.missing}}"}},
	}
	tmplCtx := tmpl.NewContext(spec.Context{Answers: map[string]any{}}, secrets.New(spec.SecretsPolicy{}))

	orig := Buckets{Answers: map[string]any{"existing": "keep"}}
	out, err := Apply(ops, orig, tmplCtx, nil)
	require.Error(t, err)
	assert.Equal(t, orig, out)
}

func TestApplyEffectsFixedOrder(t *testing.T) {
	effects := []spec.Effect{
		{Kind: spec.EffectSetStatePath, Path: "/s", Value: json.RawMessage(`"state-val"`)},
		{Kind: spec.EffectSetAnswer, Path: "/a", Value: json.RawMessage(`"answer-val"`)},
	}
	out, secretsOut, err := ApplyEffects(effects, Buckets{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "answer-val", out.Answers["a"])
	assert.Equal(t, "state-val", out.State["s"])
	assert.Nil(t, secretsOut)
}

func TestResolveEffectsMapsTargetsToEffectKinds(t *testing.T) {
	ops := []spec.StoreOp{
		{Target: spec.TargetState, Path: "/region", Value: &spec.TemplateValue{Template: "{{answers.region}}"}},
		{Target: spec.TargetConfig, Path: "/locked", Value: &spec.TemplateValue{Literal: json.RawMessage(`true`)}},
		{Target: spec.TargetPayloadOut, Path: "/summary", Value: &spec.TemplateValue{Template: "region={{answers.region}}"}},
	}
	tmplCtx := tmpl.NewContext(spec.Context{Answers: map[string]any{"region": "us-east"}}, secrets.New(spec.SecretsPolicy{}))

	effects, err := ResolveEffects(ops, tmplCtx)
	require.NoError(t, err)
	require.Len(t, effects, 3)
	assert.Equal(t, spec.EffectSetStatePath, effects[0].Kind)
	assert.Equal(t, spec.EffectSetConfigPath, effects[1].Kind)
	assert.Equal(t, spec.EffectSetPayloadOutPath, effects[2].Kind)

	out, _, err := ApplyEffects(effects, Buckets{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east", out.State["region"])
	assert.Equal(t, true, out.Config["locked"])
	assert.Equal(t, "region=us-east", out.PayloadOut["summary"])
}

func TestApplyEffectsSecretWriteDenied(t *testing.T) {
	effects := []spec.Effect{{Kind: spec.EffectWriteSecret, Path: "/vendor/token", Value: json.RawMessage(`"sekrit"`)}}
	policy := secrets.New(spec.SecretsPolicy{Enabled: true, WriteEnabled: false})

	_, _, err := ApplyEffects(effects, Buckets{}, policy)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "sekrit")
}

func TestApplyEffectsSecretWriteAccepted(t *testing.T) {
	effects := []spec.Effect{{Kind: spec.EffectWriteSecret, Path: "/vendor.token", Value: json.RawMessage(`"sekrit"`)}}
	policy := secrets.New(spec.SecretsPolicy{Enabled: true, WriteEnabled: true, Allow: []string{"**"}})

	_, secretsOut, err := ApplyEffects(effects, Buckets{}, policy)
	require.NoError(t, err)
	assert.Contains(t, secretsOut, "vendor.token")
}
