// Package docs holds the Swagger 2.0 document served at /swagger. It is
// maintained by hand in the layout swag init produces, so keep it in step
// with the handler annotations and the general info in cmd/api/main.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/plans": {
            "get": {"produces": ["application/json"], "tags": ["plans"], "summary": "List subscription plans", "responses": {"200": {"description": "OK"}}}
        },
        "/api/users/create": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Register a regular user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/api/users/login": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Sign in by email", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/users/id/{id}": {
            "get": {"produces": ["application/json"], "tags": ["users"], "summary": "Get a user by id", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/users/{email}": {
            "get": {"produces": ["application/json"], "tags": ["users"], "summary": "Get a user by email", "parameters": [{"type": "string", "name": "email", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/users/{id}/plan": {
            "put": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Change a user's plan", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/users/{id}/profile": {
            "put": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Update a user's display name", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/users/{id}/update-storage": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["users"], "summary": "Set a user's storage total", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/users/{id}/record-assessment": {
            "post": {"produces": ["application/json"], "tags": ["users"], "summary": "Count one completed assessment", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/user-limits/{id}": {
            "get": {"produces": ["application/json"], "tags": ["users"], "summary": "Usage against plan limits", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/check-admin/{email}": {
            "get": {"produces": ["application/json"], "tags": ["users"], "summary": "Administrator allow-list lookup", "parameters": [{"type": "string", "name": "email", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/assessments/create": {
            "post": {"consumes": ["multipart/form-data"], "produces": ["application/json"], "tags": ["assessments"], "summary": "Upload a floor plan", "parameters": [{"type": "string", "name": "user_id", "in": "formData", "required": true}, {"type": "file", "name": "image", "in": "formData", "required": true}, {"type": "boolean", "name": "analyze", "in": "formData"}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/api/assessments/user/{id}": {
            "get": {"produces": ["application/json"], "tags": ["assessments"], "summary": "List a user's assessments, newest first", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/assessments/{id}": {
            "get": {"produces": ["application/json"], "tags": ["assessments"], "summary": "Get an assessment", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/assessments/{id}/complete": {
            "put": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["assessments"], "summary": "Complete a processing assessment", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/api/assessments/{id}/fail": {
            "put": {"produces": ["application/json"], "tags": ["assessments"], "summary": "Mark a processing assessment as failed", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/api/analytics/overview": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["analytics"], "summary": "Dashboard totals", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}
        },
        "/api/analytics/users": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["analytics"], "summary": "All regular users with counts", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}
        },
        "/auth/admin/signup": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"], "summary": "Register an administrator", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}}}
        },
        "/auth/admin/login": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"], "summary": "Administrator login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/logout": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Revoke the current token", "responses": {"204": {"description": "No Content"}}}
        },
        "/auth/me": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["auth"], "summary": "Current administrator", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "plan2protect API",
	Description:      "Users, plans, floor-plan assessments and administrator analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
