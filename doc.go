// Package cognitoauthz decides whether an API Gateway request carrying an
// Amazon Cognito token may invoke the method it targets.
//
// A token is trusted only after its signature verifies against a key from the
// user pool's published JSON Web Key Set. The key set is fetched once per
// process and reused for every request. Verified claims are then checked for
// expiry and audience, and the outcome is returned as an IAM policy document.
// Every failure denies.
package cognitoauthz
