// Package docs holds the OpenAPI description served at /swagger.
//
// Regenerate with: swag init -g cmd/api/main.go
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
        "/annotations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["annotations"],
                "summary": "Save an annotation",
                "parameters": [
                    {
                        "description": "Annotation",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.SaveAnnotationInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.saveAnnotationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/annotations/{document_id}": {
            "get": {
                "description": "An unknown document yields an empty array.",
                "produces": ["application/json"],
                "tags": ["annotations"],
                "summary": "List a document's annotations",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "document_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.annotationView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.DocumentSummary"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get document metadata",
                "parameters": [
                    {"type": "integer", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Pings the database.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/upload": {
            "post": {
                "description": "Stores the file under its sanitized name. Uploading the same name again replaces the file and keeps the document id.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a PDF",
                "parameters": [
                    {"type": "file", "description": "PDF file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.uploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/uploads/{filename}": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["documents"],
                "summary": "Download an uploaded file",
                "parameters": [
                    {"type": "string", "description": "Sanitized filename", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.annotationView": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "highlight_rects": {"type": "object"},
                "id": {"type": "integer"},
                "page": {"type": "integer"},
                "position_x": {"type": "number"},
                "position_y": {"type": "number"},
                "type": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.saveAnnotationResponse": {
            "type": "object",
            "properties": {
                "annotation_id": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "handler.uploadResponse": {
            "type": "object",
            "properties": {
                "document_id": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "id": {"type": "integer"},
                "page_count": {"type": "integer"},
                "storage_path": {"type": "string"},
                "upload_date": {"type": "string"},
                "user_id": {"type": "integer"}
            }
        },
        "model.DocumentSummary": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "id": {"type": "integer"}
            }
        },
        "service.SaveAnnotationInput": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "document_id": {"type": "integer"},
                "highlight_rects": {"type": "object"},
                "page": {"type": "integer"},
                "position_x": {"type": "number"},
                "position_y": {"type": "number"},
                "type": {"type": "string"}
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
	Title:            "PDF Annotation API",
	Description:      "Upload PDF documents and attach positional annotations to their pages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
