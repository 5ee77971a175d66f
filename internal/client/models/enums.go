package models

import (
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// Enums are persisted as their canonical lowercase tag. Parse functions are
// total over that tag set and fail loudly on anything else.

// SyncState is the synchronization status of a persisted record.
type SyncState string

const (
	SyncStateLocal    SyncState = "local"
	SyncStateSynced   SyncState = "synced"
	SyncStateModified SyncState = "modified"
	SyncStateConflict SyncState = "conflict"
	SyncStateError    SyncState = "error"
)

func ParseSyncState(s string) (SyncState, error) {
	return parseEnum(s, SyncStateLocal, SyncStateSynced, SyncStateModified, SyncStateConflict, SyncStateError)
}

// CachePolicy selects cache retention and size tiers.
type CachePolicy string

const (
	CachePolicyDisabled    CachePolicy = "disabled"
	CachePolicyLightweight CachePolicy = "lightweight"
	CachePolicyBalanced    CachePolicy = "balanced"
	CachePolicyExtended    CachePolicy = "extended"
)

func ParseCachePolicy(s string) (CachePolicy, error) {
	return parseEnum(s, CachePolicyDisabled, CachePolicyLightweight, CachePolicyBalanced, CachePolicyExtended)
}

// MessageRole is the author of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

func ParseMessageRole(s string) (MessageRole, error) {
	return parseEnum(s, RoleUser, RoleAssistant, RoleSystem)
}

// ProcessingState tracks the backend lifecycle of messages and queue entries.
type ProcessingState string

const (
	ProcessingPending    ProcessingState = "pending"
	ProcessingProcessing ProcessingState = "processing"
	ProcessingComplete   ProcessingState = "complete"
	ProcessingFailed     ProcessingState = "failed"
	ProcessingCancelled  ProcessingState = "cancelled"
)

func ParseProcessingState(s string) (ProcessingState, error) {
	return parseEnum(s, ProcessingPending, ProcessingProcessing, ProcessingComplete, ProcessingFailed, ProcessingCancelled)
}

// AuthType is the authentication mechanism of a configured server.
type AuthType string

const (
	AuthTypeJWT   AuthType = "jwt"
	AuthTypeOAuth AuthType = "oauth"
	AuthTypeLDAP  AuthType = "ldap"
)

func ParseAuthType(s string) (AuthType, error) {
	return parseEnum(s, AuthTypeJWT, AuthTypeOAuth, AuthTypeLDAP)
}

// ConnectionStatus is the last observed connectivity of a server.
type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionError        ConnectionStatus = "error"
)

func ParseConnectionStatus(s string) (ConnectionStatus, error) {
	return parseEnum(s, ConnectionConnected, ConnectionDisconnected, ConnectionConnecting, ConnectionError)
}

// UploadStatus is the upload lifecycle of a dropped file.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
	UploadCancelled UploadStatus = "cancelled"
)

func ParseUploadStatus(s string) (UploadStatus, error) {
	return parseEnum(s, UploadPending, UploadUploading, UploadCompleted, UploadFailed, UploadCancelled)
}

// CacheType segments the encrypted cache for targeted retention.
type CacheType string

const (
	CacheTypeConversation CacheType = "conversation"
	CacheTypeMessage      CacheType = "message"
	CacheTypeFile         CacheType = "file"
	CacheTypePreference   CacheType = "preference"
)

func ParseCacheType(s string) (CacheType, error) {
	return parseEnum(s, CacheTypeConversation, CacheTypeMessage, CacheTypeFile, CacheTypePreference)
}

// Theme is the UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func ParseTheme(s string) (Theme, error) {
	return parseEnum(s, ThemeLight, ThemeDark, ThemeSystem)
}

func parseEnum[T ~string](s string, valid ...T) (T, error) {
	for _, v := range valid {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %T %q", common.ErrInvalidEnumValue, zero, s)
}
