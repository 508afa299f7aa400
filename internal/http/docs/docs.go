// Package docs holds the OpenAPI description of the HTTP surface, in the
// layout swag init generates, served by gin-swagger under /swagger.
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
        "/health": {
            "get": {
                "description": "Reports every supervised task. 200 when all are running, 503 while any is starting, restarting or stopped.",
                "produces": ["application/json"],
                "tags": ["Ops"],
                "summary": "Health of the bots and HTTP server",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/{token}": {
            "get": {
                "description": "Redirects \"<worker-domain>/{token}\" to the file-server bot deep link, which delivers the stored file after the channel-membership check.",
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Open a shared file link",
                "operationId": "redirectLink",
                "parameters": [
                    {
                        "type": "string",
                        "example": "aB3dE9",
                        "description": "Mapping token (1-64 alphanumerics)",
                        "name": "token",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "302": {
                        "description": "Redirect to https://t.me/<bot>?start={token}",
                        "headers": {"Location": {"type": "string", "description": "Telegram deep link"}}
                    },
                    "404": {"description": "Invalid token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "File-server bot not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "link not found"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/supervisor.Status"}}
            }
        },
        "supervisor.Status": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "state": {"type": "string", "enum": ["starting", "running", "restarting", "stopped"]},
                "restarts": {"type": "integer"},
                "last_error": {"type": "string"},
                "since": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "linkbox",
	Description:      "Short-link redirect and operations surface of the linkbox bots.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
