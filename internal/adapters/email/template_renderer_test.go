package email

import (
	"testing"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_Welcome(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	subject, html, text, err := r.Render("welcome", &domain.WelcomeMessageEmailData{
		Email:    "jo@example.com",
		FullName: "Jo <Admin>",
		Role:     domain.RoleSponsor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to EventHub, Jo <Admin>", subject)
	assert.Contains(t, html, "Jo &lt;Admin&gt;")
	assert.Contains(t, html, "sponsor profile")
	assert.Contains(t, text, "jo@example.com")
	assert.Contains(t, text, "sponsor profile")
}

func TestTemplateRenderer_WelcomeWithoutName(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	subject, _, text, err := r.Render("welcome", &domain.WelcomeMessageEmailData{Email: "jo@example.com", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to EventHub", subject)
	assert.Contains(t, text, "Hi there,")
	assert.Contains(t, text, "submit your own")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = r.Render("password_reset", nil)
	assert.ErrorContains(t, err, "render subject")
}
