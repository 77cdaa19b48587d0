// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new library member",
                "parameters": [{"description": "Registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [{"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh-token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "parameters": [{"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RefreshRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Revoke every session of the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "name": "role", "in": "query"},
                    {"type": "string", "name": "searchQuery", "in": "query"},
                    {"type": "integer", "default": 1, "name": "pageNumber", "in": "query"},
                    {"type": "integer", "default": 10, "name": "pageSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.User"}}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user profile",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateUserRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete a user and their loans and tokens",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/books": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "parameters": [
                    {"type": "boolean", "name": "isAvailable", "in": "query"},
                    {"type": "string", "name": "searchQuery", "in": "query"},
                    {"type": "integer", "default": 1, "name": "pageNumber", "in": "query"},
                    {"type": "integer", "default": 10, "name": "pageSize", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Add a book to the catalogue",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateBookRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Book"}}}
            }
        },
        "/books/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get book by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Book"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Replace a book",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateBookRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Book"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["books"],
                "summary": "Remove a book and its loan history",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/book-loans": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["book-loans"],
                "summary": "List book loans",
                "parameters": [
                    {"type": "integer", "name": "userId", "in": "query"},
                    {"type": "integer", "name": "bookId", "in": "query"},
                    {"type": "boolean", "name": "isDue", "in": "query"},
                    {"type": "boolean", "name": "isOverdue", "in": "query"},
                    {"type": "integer", "default": 1, "name": "pageNumber", "in": "query"},
                    {"type": "integer", "default": 10, "name": "pageSize", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.BookLoan"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["book-loans"],
                "summary": "Borrow a book",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BorrowRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BookLoan"}}}
            }
        },
        "/book-loans/{id}/return": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["book-loans"],
                "summary": "Return a borrowed book",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BookLoan"}}}
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "handler.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "id": {"type": "integer"},
                "email": {"type": "string"}
            }
        },
        "handler.RegisterRequest": {
            "type": "object",
            "required": ["email", "firstName", "lastName", "password"],
            "properties": {
                "firstName": {"type": "string", "maxLength": 100},
                "lastName": {"type": "string", "maxLength": 100},
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "minLength": 6, "maxLength": 72},
                "address": {"type": "string", "maxLength": 300},
                "contactNumber": {"type": "string", "maxLength": 15}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.RefreshRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.UpdateUserRequest": {
            "type": "object",
            "required": ["email", "firstName", "id", "lastName"],
            "properties": {
                "id": {"type": "integer"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "contactNumber": {"type": "string"},
                "role": {"type": "string", "enum": ["Admin", "LibraryMember"]}
            }
        },
        "handler.CreateBookRequest": {
            "type": "object",
            "required": ["author", "genre", "isbn", "title"],
            "properties": {
                "title": {"type": "string"},
                "author": {"type": "string"},
                "genre": {"type": "string"},
                "isbn": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.UpdateBookRequest": {
            "type": "object",
            "required": ["author", "genre", "id", "isbn", "title"],
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "genre": {"type": "string"},
                "isbn": {"type": "string"},
                "description": {"type": "string"},
                "isAvailable": {"type": "boolean"}
            }
        },
        "handler.BorrowRequest": {
            "type": "object",
            "required": ["bookId"],
            "properties": {
                "bookId": {"type": "integer"},
                "borrowedDate": {"type": "string", "format": "date-time"},
                "dueDate": {"type": "string", "format": "date-time"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "contactNumber": {"type": "string"},
                "role": {"type": "string", "enum": ["Admin", "LibraryMember"]}
            }
        },
        "model.Book": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "genre": {"type": "string"},
                "isbn": {"type": "string"},
                "description": {"type": "string"},
                "isAvailable": {"type": "boolean"}
            }
        },
        "model.BookLoan": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "bookId": {"type": "integer"},
                "userId": {"type": "integer"},
                "borrowedDate": {"type": "string", "format": "date-time"},
                "dueDate": {"type": "string", "format": "date-time"},
                "returnedDate": {"type": "string", "format": "date-time"},
                "book": {"$ref": "#/definitions/model.Book"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "ReadNest API",
	Description:      "Library backend: members, catalogue, loans and JWT sessions with refresh-token rotation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
