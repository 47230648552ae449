package telegram

const welcomeMessage = `💎 *¡Bienvenido a ETH Creators!*

¡Crea videos con IA sobre Ethereum usando Sora 2!

*Inicio Rápido:*
1. Escribe /create [tu idea] para generar un video
2. Publícalo en TikTok/X/Instagram
3. Regístralo con /posted [url] para entrar a la clasificación

*Comandos:*
• /create - Generar video con Sora 2
• /categories - Ver temas aprobados
• /examples - Inspiración para prompts
• /leaderboard - Ver clasificación
• /stats - Estadísticas de la campaña
• /myvideos - Tus videos
• /rules - Guías de contenido

🌐 *Ver todos los videos:* www.ethcreators.app

¡Creemos algo increíble! 🚀`

const createUsageMessage = `📝 Uso: /create [tu prompt]

Ejemplo: /create Ethereum transformando las finanzas globales, estilo futurista

¿Necesitas ideas? Prueba /examples`

const postedUsageMessage = `📝 Uso: /posted [url]

Ejemplo: /posted https://tiktok.com/@user/video/123

Plataformas soportadas: TikTok, Instagram, X, YouTube Shorts`

const invalidURLMessage = `❌ *URL inválida*

Envía una URL válida de:
• TikTok: tiktok.com/@user/video/...
• Instagram: instagram.com/p/... o instagram.com/reel/...
• X: x.com/.../status/...
• YouTube: youtube.com/shorts/...

Intenta de nuevo con una URL válida.`

const noVideosMessage = `❌ *No tienes videos*

Primero crea un video con /create

Cuando lo tengas, publícalo y regístralo con /posted [url]`

const postExistsMessage = `⚠️ *¡Post ya registrado!*

Esta publicación ya está siendo rastreada.

Revisa la clasificación con /leaderboard`

const rulesMessage = `📜 *Guías de Contenido*

✅ *Permitido:*
• Educación sobre Ethereum y DeFi
• Casos de uso reales y adopción
• Tecnología L2 y multi-chain
• Cultura cripto y creatividad

❌ *Prohibido:*
• Promesas de ganancias o precios
• Señales de trading y apuestas
• Contenido engañoso o spam

⚖️ *Strikes:*
Contenido rechazado suma strikes. Tres strikes activan un periodo de enfriamiento.

💰 Cada video cuesta ~$4 USD, ¡hazlo valer!`

const examplesMessage = `🎨 *Ideas para tu video:*

• "Una abuela mexicana explicando cómo envía remesas con Ethereum, cocina tradicional de fondo"
• "Visualización futurista de una transacción viajando por una red Layer 2"
• "Un puesto de tacos que acepta ETH, ambiente de mercado nocturno"
• "DeFi explicado con una metáfora de huerto comunitario"

Usa /create seguido de tu idea. Sé específico con el estilo visual. 🎬`

const generatingMessage = "🎬 *Generando tu video con IA...*\n\nEsto toma unos minutos. Te aviso cuando esté listo. ⏳"
