// Property-based tests for middleware gating logic.
package bot

import (
	"testing"

	"pgregory.net/rapid"

	"telegram-trivia-bot/internal/config"
)

// TestAdminCheckProperty checks that a user is recognized as admin if and
// only if their id appears in the configured admin list.
func TestAdminCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAdmins := rapid.IntRange(1, 10).Draw(t, "numAdmins")
		adminIDs := make([]int64, numAdmins)
		adminSet := make(map[int64]bool)
		for i := 0; i < numAdmins; i++ {
			adminIDs[i] = rapid.Int64Range(1, 1000000000).Draw(t, "adminID")
			adminSet[adminIDs[i]] = true
		}

		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: adminIDs},
		}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		if cfg.IsAdmin(userID) != adminSet[userID] {
			t.Fatalf("admin check mismatch: userID=%d, adminIDs=%v", userID, adminIDs)
		}

		// A known admin is always recognized.
		known := adminIDs[rapid.IntRange(0, numAdmins-1).Draw(t, "adminIndex")]
		if !cfg.IsAdmin(known) {
			t.Fatalf("known admin %d not recognized, adminIDs=%v", known, adminIDs)
		}
	})
}

// TestWhitelistEnforcementProperty checks that a chat is allowed if and
// only if its id appears in the whitelist.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(1, 10).Draw(t, "numChats")
		chatIDs := make([]int64, numChats)
		chatSet := make(map[int64]bool)
		for i := 0; i < numChats; i++ {
			// Group chat ids are typically negative
			chatIDs[i] = -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
			chatSet[chatIDs[i]] = true
		}

		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{Chats: chatIDs},
		}

		testChatID := -rapid.Int64Range(1, 1000000000).Draw(t, "testChatID")
		if cfg.IsChatAllowed(testChatID) != chatSet[testChatID] {
			t.Fatalf("whitelist check mismatch: chatID=%d, whitelist=%v", testChatID, chatIDs)
		}
	})
}

// TestEmptyWhitelistAllowsAllChatsProperty checks the open-by-default
// behavior of an empty whitelist.
func TestEmptyWhitelistAllowsAllChatsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{Chats: []int64{}},
		}

		chatID := -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
		if !cfg.IsChatAllowed(chatID) {
			t.Fatalf("empty whitelist rejected chat %d", chatID)
		}
	})
}
