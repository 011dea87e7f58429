// Package google manages the OAuth2 credentials used by the Calendar
// integration.
//
// A Manager owns the single user's token and moves it through an explicit
// lifecycle: NoToken, Valid, Expired, Refreshing and Invalid. The token
// file written by FileTokenStore is the only persisted state. Obtaining a
// new grant needs a browser, so it only happens when a ConsentFunc such as
// LoopbackConsent is configured; a non-interactive Manager reports a
// *ConfigurationError instead.
package google
