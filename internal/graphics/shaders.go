package graphics

const terrainVert = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;

uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;

out vec3 vNormal;
out vec2 vUV;

void main() {
	vNormal = normalize(mat3(model) * aNormal);
	vUV = aUV;
	gl_Position = proj * view * model * vec4(aPos, 1.0);
}`

const terrainFrag = `#version 410 core
in vec3 vNormal;
in vec2 vUV;

uniform vec3 tint;
uniform vec3 lightDir;

out vec4 fragColor;

void main() {
	float diffuse = max(dot(normalize(vNormal), -lightDir), 0.0);
	float checker = mod(floor(vUV.x * 4.0) + floor(vUV.y * 4.0), 2.0) * 0.05;
	fragColor = vec4(tint * (0.35 + 0.65 * diffuse) + checker, 1.0);
}`

const foliageVert = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 3) in mat4 aInstance;

uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;

out float vHeight;

void main() {
	vHeight = aPos.y;
	gl_Position = proj * view * model * aInstance * vec4(aPos, 1.0);
}`

const foliageFrag = `#version 410 core
in float vHeight;

uniform vec3 tint;

out vec4 fragColor;

void main() {
	fragColor = vec4(tint * (0.5 + 0.5 * vHeight), 1.0);
}`
