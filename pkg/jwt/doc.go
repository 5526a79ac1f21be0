// Package jwt provides the typed token codec used across the service: HS256
// tokens in three families (access, refresh, oauth_state), each signed with a
// dedicated secret and lifetime.
//
// The Service wraps github.com/golang-jwt/jwt/v5. Parse enforces both the
// signature and the embedded kind claim, and collapses every verification
// failure into ErrInvalidToken to avoid leaking why a token was rejected.
//
// # Usage
//
//	var cfg jwt.Config
//	config.MustLoad(&cfg)
//
//	svc, err := jwt.New(cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	pair, err := svc.IssuePair(userID.String())
//	claims, err := svc.Parse(pair.AccessToken, jwt.KindAccess)
package jwt
