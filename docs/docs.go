// Package docs регистрирует описание API витрины для swag и http-swagger.
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
        "/products": {
            "get": {"tags": ["Products"], "summary": "Список товаров", "parameters": [
                {"type": "integer", "name": "limit", "in": "query"},
                {"type": "string", "name": "category", "in": "query"},
                {"type": "string", "name": "search", "in": "query"}
            ], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}},
            "post": {"tags": ["Products"], "summary": "Создать товар", "security": [{"BearerAuth": []}], "parameters": [
                {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProductInput"}}
            ], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/products/categories": {
            "get": {"tags": ["Products"], "summary": "Категории товаров", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/products/{id}": {
            "get": {"tags": ["Products"], "summary": "Товар по id", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}},
            "put": {"tags": ["Products"], "summary": "Изменить товар", "security": [{"BearerAuth": []}], "parameters": [
                {"type": "integer", "name": "id", "in": "path", "required": true},
                {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProductInput"}}
            ], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "delete": {"tags": ["Products"], "summary": "Удалить товар", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/cart": {
            "get": {"tags": ["Cart"], "summary": "Корзина устройства", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "delete": {"tags": ["Cart"], "summary": "Очистить корзину", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/cart/items": {
            "post": {"tags": ["Cart"], "summary": "Добавить товар в корзину", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.AddRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/cart/items/{id}": {
            "put": {"tags": ["Cart"], "summary": "Изменить количество товара", "parameters": [
                {"type": "integer", "name": "id", "in": "path", "required": true},
                {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.UpdateRequest"}}
            ], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "delete": {"tags": ["Cart"], "summary": "Удалить товар из корзины", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/cart/checkout": {
            "post": {"tags": ["Cart"], "summary": "Оформить заказ", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "422": {"description": "Корзина пуста", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/favorites": {
            "get": {"tags": ["Favorites"], "summary": "Избранные товары", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/favorites/{id}": {
            "put": {"tags": ["Favorites"], "summary": "Добавить товар в избранное", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}},
            "delete": {"tags": ["Favorites"], "summary": "Удалить товар из избранного", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/favorites/{id}/toggle": {
            "post": {"tags": ["Favorites"], "summary": "Переключить товар в избранном", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/newsletter/subscribe": {
            "post": {"tags": ["Newsletter"], "summary": "Подписаться на рассылку", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/newsletter.Request"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "409": {"description": "Email уже подписан", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/newsletter/unsubscribe": {
            "post": {"tags": ["Newsletter"], "summary": "Отписаться от рассылки", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/newsletter.Request"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "404": {"description": "Email не подписан", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/admin/newsletter/subscribers": {
            "get": {"tags": ["Admin"], "summary": "Подписчики рассылки", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "search", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/admin/newsletter/subscribers/{email}": {
            "delete": {"tags": ["Admin"], "summary": "Отписать подписчика", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "email", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/admin/newsletter/subscribers.csv": {
            "get": {"tags": ["Admin"], "summary": "Выгрузка подписчиков в CSV", "produces": ["text/csv"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "CSV", "schema": {"type": "string"}}}}
        },
        "/admin/newsletter/stats": {
            "get": {"tags": ["Admin"], "summary": "Статистика рассылки", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/auth/login": {
            "post": {"tags": ["Auth"], "summary": "Вход", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "Выход", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/auth/me": {
            "get": {"tags": ["Auth"], "summary": "Текущий пользователь", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/health": {
            "get": {"tags": ["Health"], "summary": "Проверка живости", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "definitions": {
        "models.Notification": {"type": "object", "properties": {
            "title": {"type": "string"}, "description": {"type": "string"}, "variant": {"type": "string", "enum": ["default", "destructive"]}
        }},
        "models.ProductInput": {"type": "object", "required": ["title", "price", "description", "category", "image"], "properties": {
            "title": {"type": "string", "minLength": 3}, "price": {"type": "number"}, "description": {"type": "string", "minLength": 10},
            "category": {"type": "string"}, "image": {"type": "string", "format": "uri"}
        }},
        "cart.AddRequest": {"type": "object", "required": ["product_id"], "properties": {
            "product_id": {"type": "integer"}, "quantity": {"type": "integer", "minimum": 1}
        }},
        "cart.UpdateRequest": {"type": "object", "properties": {"quantity": {"type": "integer"}}},
        "newsletter.Request": {"type": "object", "required": ["email"], "properties": {"email": {"type": "string", "format": "email"}}},
        "auth.LoginRequest": {"type": "object", "required": ["username", "password"], "properties": {
            "username": {"type": "string"}, "password": {"type": "string"}
        }},
        "response.Response": {"type": "object", "properties": {
            "status": {"type": "string", "example": "OK"}, "error": {"type": "string"}, "data": {},
            "notifications": {"type": "array", "items": {"$ref": "#/definitions/models.Notification"}}
        }},
        "response.ErrorResponse": {"type": "object", "properties": {
            "status": {"type": "string", "example": "Error"}, "error": {"type": "string", "example": "invalid request body"},
            "notifications": {"type": "array", "items": {"$ref": "#/definitions/models.Notification"}}
        }}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo сведения об API, подставляемые в шаблон.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Fashion Storefront API",
	Description:      "Корзина, избранное, рассылка и сессии витрины поверх удалённого каталога.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
