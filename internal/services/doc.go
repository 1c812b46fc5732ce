// package services contains clients for external collaborators: the Spotify
// catalog API and an OpenAI-compatible completion provider.
package services
