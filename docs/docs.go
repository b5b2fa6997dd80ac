// Package docs holds the OpenAPI description served under /docs. It is
// maintained by hand in the layout swag produces and registered with swag.
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
        "/": {
            "get": {
                "description": "Get basic worker information and capabilities",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Worker information",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.WorkerInfoResponse"}
                    }
                }
            }
        },
        "/crossings": {
            "get": {
                "description": "Most recent logged crossings, newest first",
                "produces": ["application/json"],
                "tags": ["crossings"],
                "summary": "Recent crossings",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Maximum number of events",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.CrossingsResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check the worker and its remote engines",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    }
                }
            }
        },
        "/session": {
            "get": {
                "description": "Live counters, stop line and video of the running session",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/worker.Info"}
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.CrossingsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 1},
                "crossings": {"type": "array", "items": {"$ref": "#/definitions/models.CrossingEvent"}}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "components": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string", "example": "healthy"},
                "worker_id": {"type": "string", "example": "worker-1"}
            }
        },
        "handlers.WorkerInfoResponse": {
            "type": "object",
            "properties": {
                "capabilities": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "example": "running"},
                "version": {"type": "string", "example": "1.0.0"},
                "worker_id": {"type": "string", "example": "worker-1"}
            }
        },
        "models.CrossingEvent": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number"},
                "frame_id": {"type": "integer"},
                "plate": {"type": "string"},
                "session_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "track_id": {"type": "integer"}
            }
        },
        "models.Point": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"}
            }
        },
        "models.StopLine": {
            "type": "object",
            "properties": {
                "p1": {"$ref": "#/definitions/models.Point"},
                "p2": {"$ref": "#/definitions/models.Point"}
            }
        },
        "models.VideoInfo": {
            "type": "object",
            "properties": {
                "fps": {"type": "number"},
                "height": {"type": "integer"},
                "path": {"type": "string"},
                "total_frames": {"type": "integer"},
                "width": {"type": "integer"}
            }
        },
        "worker.Info": {
            "type": "object",
            "properties": {
                "class_id": {"type": "integer"},
                "id": {"type": "string"},
                "retry_mode": {"type": "string"},
                "started_at": {"type": "string"},
                "state": {"type": "string"},
                "stats": {"$ref": "#/definitions/worker.Stats"},
                "stop_line": {"$ref": "#/definitions/models.StopLine"},
                "video": {"$ref": "#/definitions/models.VideoInfo"}
            }
        },
        "worker.Stats": {
            "type": "object",
            "properties": {
                "crossings": {"type": "integer"},
                "detections": {"type": "integer"},
                "duration_ns": {"type": "integer"},
                "errors": {"type": "integer"},
                "events": {"type": "integer"},
                "frames": {"type": "integer"},
                "recognition_failures": {"type": "integer"},
                "recorded_tracks": {"type": "integer"},
                "tracker_errors": {"type": "integer"},
                "tracks": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stop-line Worker API",
	Description:      "Read-only API of a worker that logs license plates of vehicles crossing a stop line",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
