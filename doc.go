// Package accounts provides user account primitives: registration with
// media uploads, credential verification, JWT access/refresh issuance,
// and HTTP helpers to guard routes.
//
// Token lifecycle:
//   - TokenService signs short-lived access tokens and longer-lived
//     refresh tokens with independent secrets. Access tokens embed the
//     username and email so handlers can render identity without a
//     lookup; refresh tokens carry only the subject.
//   - The refresh token issued at login is persisted on the user record
//     and cleared at logout, so a logged-out session cannot be renewed.
//
// Request authentication:
//   - middleware/jwtware extracts bearer or cookie tokens and validates
//     them through a TokenValidator. RouteAuthenticator composes the
//     middleware with identity re-resolution against the store, so a
//     token signed for a since-deleted user is rejected.
package accounts
