package vulkan

/** @brief The engine name reported to the driver. */
const VULKAN_ENGINE_NAME string = "Prisma Engine"

/** @brief The entry point name every shader module is expected to export. */
const VULKAN_SHADER_ENTRY_POINT string = "main"
