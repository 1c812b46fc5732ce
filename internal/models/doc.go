// package models defines the data model for the playlist discovery service
package models
