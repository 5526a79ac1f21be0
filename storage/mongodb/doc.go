// Package mongodb implements the auth user store on top of a MongoDB
// collection. One-time token consumption is expressed as conditional
// findOneAndUpdate calls so a verification or reset token can never be
// redeemed twice, even under concurrent requests.
package mongodb
