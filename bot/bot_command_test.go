/* bot_command_test.go
 * Contains unit tests for NewBot
 */

package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// region NewBot tests

func TestNewBot_Success(t *testing.T) {
	b, _, _ := createTestBot(t)
	bot, err := NewBot("test_token", "!", b.APIPtr, nil)

	require.NoError(t, err)
	assert.Equal(t, "test_token", bot.BotToken)
	assert.Equal(t, "!", bot.Prefix)
	assert.Same(t, b.APIPtr, bot.APIPtr)
	assert.NotNil(t, bot.Logger)
	assert.IsType(t, HTTPFetcher{}, bot.Fetcher)
}

func TestNewBot_DefaultPrefix(t *testing.T) {
	b, _, _ := createTestBot(t)
	bot, err := NewBot("test_token", "", b.APIPtr, nil)

	require.NoError(t, err)
	assert.Equal(t, "$", bot.Prefix)
}

func TestNewBot_EmptyToken(t *testing.T) {
	b, _, _ := createTestBot(t)
	_, err := NewBot("", "$", b.APIPtr, nil)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "botToken is required"))
}

func TestNewBot_MissingAPI(t *testing.T) {
	_, err := NewBot("test_token", "$", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api is required")
}

// endregion
