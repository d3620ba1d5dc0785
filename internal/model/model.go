// Package model contains the domain records shared by the repository, service
// and HTTP layers. Field tags follow the column names so sqlx can scan rows
// directly into them.
package model
